// Package release implements the deferred destruction queue of one frame
// slot.
//
// Resources are appended from any goroutine and torn down in bulk, one list
// per resource kind, once the slot's frame has fully retired.
package release

import (
	"sync"

	"github.com/gogpu/inflight/gpucore"
	"github.com/gogpu/inflight/internal/assert"
)

// Target is what a flush tears resources down against.
type Target struct {
	Backend gpucore.Backend

	// Memory is passed to image and buffer teardown.
	Memory gpucore.MemoryPool

	// Descriptors is the pool descriptor sets are freed to.
	Descriptors gpucore.DescriptorPool

	// CommandPool returns the device-wide pool of a queue family, which owns
	// every command buffer released for that family.
	CommandPool func(gpucore.QueueFamily) gpucore.CommandPool
}

type list struct {
	mu    sync.Mutex
	items []gpucore.Resource
}

// Queue holds the resources waiting for one frame slot to retire.
// The zero value is an empty queue.
type Queue struct {
	lists [gpucore.KindCount]list
}

// Enqueue appends resources to their kind's list. Order within a kind is
// kept. Every resource must be valid.
func (q *Queue) Enqueue(res ...gpucore.Resource) {
	for _, r := range res {
		assert.That(r.Valid(), "enqueue of invalid resource %v", r)
	}

	// Most calls carry a single resource or a run of one kind; lock each
	// list once per run.
	for len(res) > 0 {
		kind := res[0].Kind()
		n := 1
		for n < len(res) && res[n].Kind() == kind {
			n++
		}

		l := &q.lists[kind]
		l.mu.Lock()
		l.items = append(l.items, res[:n]...)
		l.mu.Unlock()

		res = res[n:]
	}
}

// HasElements reports whether kind has queued resources.
func (q *Queue) HasElements(kind gpucore.Kind) bool {
	return q.Len(kind) > 0
}

// Len returns the number of queued resources of kind.
func (q *Queue) Len(kind gpucore.Kind) int {
	l := &q.lists[kind]
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Reset tears down every queued resource of kind and empties its list.
// It returns the number of resources released.
func (q *Queue) Reset(kind gpucore.Kind, target Target) int {
	l := &q.lists[kind]
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.items)
	if n == 0 {
		return 0
	}
	destructors[kind](target, l.items)

	clear(l.items)
	l.items = l.items[:0]
	return n
}

// Flush resets every non-empty kind and returns the per-kind counts.
func (q *Queue) Flush(target Target) [gpucore.KindCount]int {
	var counts [gpucore.KindCount]int
	for k := gpucore.Kind(0); k < gpucore.KindCount; k++ {
		if q.HasElements(k) {
			counts[k] = q.Reset(k, target)
		}
	}
	return counts
}

// Batch is the content of a Queue detached by Take. Nothing in a batch is
// torn down until Release is called.
type Batch struct {
	items [gpucore.KindCount][]gpucore.Resource
}

// Len returns the number of resources in the batch.
func (b *Batch) Len() int {
	n := 0
	for _, items := range b.items {
		n += len(items)
	}
	return n
}

// Take detaches every queued resource, locking each kind's list in turn.
// Resources enqueued afterwards stay in the queue.
func (q *Queue) Take() Batch {
	var b Batch
	for k := range q.lists {
		l := &q.lists[k]
		l.mu.Lock()
		if len(l.items) > 0 {
			b.items[k] = l.items
			l.items = nil
		}
		l.mu.Unlock()
	}
	return b
}

// Restore puts a batch back ahead of anything enqueued since it was taken,
// so order within a kind is kept.
func (q *Queue) Restore(b Batch) {
	for k, items := range b.items {
		if len(items) == 0 {
			continue
		}
		l := &q.lists[k]
		l.mu.Lock()
		l.items = append(items, l.items...)
		l.mu.Unlock()
	}
}

// Release tears the batch down against target and returns the per-kind
// counts. The batch is empty afterwards.
func (b *Batch) Release(target Target) [gpucore.KindCount]int {
	var counts [gpucore.KindCount]int
	for k, items := range b.items {
		if len(items) == 0 {
			continue
		}
		destructors[k](target, items)
		counts[k] = len(items)
		b.items[k] = nil
	}
	return counts
}
