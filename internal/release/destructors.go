package release

import "github.com/gogpu/inflight/gpucore"

// destructor releases a batch of resources that all share one kind.
type destructor func(t Target, items []gpucore.Resource)

var destructors = [gpucore.KindCount]destructor{
	gpucore.KindDescriptorSet:         freeDescriptorSets,
	gpucore.KindDescriptorSetLayout:   each(func(t Target, h any) { t.Backend.DestroyDescriptorSetLayout(h) }),
	gpucore.KindImageView:             each(func(t Target, h any) { t.Backend.DestroyImageView(h) }),
	gpucore.KindImage:                 each(func(t Target, h any) { t.Backend.DestroyImage(h, t.Memory) }),
	gpucore.KindBuffer:                each(func(t Target, h any) { t.Backend.DestroyBuffer(h, t.Memory) }),
	gpucore.KindCommandBuffer:         freeCommandBuffers,
	gpucore.KindSemaphore:             each(func(t Target, h any) { t.Backend.DestroySemaphore(h) }),
	gpucore.KindFence:                 each(func(t Target, h any) { t.Backend.DestroyFence(h) }),
	gpucore.KindAccelerationStructure: destroyAccelerationStructures,
}

func each(fn func(t Target, h any)) destructor {
	return func(t Target, items []gpucore.Resource) {
		for _, r := range items {
			fn(t, r.Handle())
		}
	}
}

func freeDescriptorSets(t Target, items []gpucore.Resource) {
	sets := make([]gpucore.DescriptorSet, len(items))
	for i, r := range items {
		sets[i] = r.Handle()
	}
	t.Backend.FreeDescriptorSets(t.Descriptors, sets)
}

// freeCommandBuffers frees buffers back to the pool of their family, one
// call per family.
func freeCommandBuffers(t Target, items []gpucore.Resource) {
	var byFamily [gpucore.QueueFamilyCount][]gpucore.CommandBuffer
	for _, r := range items {
		i := r.Family().Index()
		byFamily[i] = append(byFamily[i], r.Handle())
	}
	for i, bufs := range byFamily {
		if len(bufs) == 0 {
			continue
		}
		family := gpucore.QueueFamilies[i]
		t.Backend.FreeCommandBuffers(t.CommandPool(family), bufs)
	}
}

func destroyAccelerationStructures(t Target, items []gpucore.Resource) {
	for _, r := range items {
		if r.IsInstance() {
			t.Backend.DestroyInstanceAccelerationStructure(r.Handle())
		} else {
			t.Backend.DestroyPrimitiveAccelerationStructure(r.Handle())
		}
	}
}
