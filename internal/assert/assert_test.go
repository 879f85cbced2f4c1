//go:build !inflight_release

package assert

import (
	"strings"
	"testing"
)

func TestThatPasses(t *testing.T) {
	That(true, "never %s", "shown")
}

func TestThatPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for failed assertion")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("panic value = %T, want string", r)
		}
		if !strings.Contains(msg, "slot 2 busy") {
			t.Errorf("panic message = %q, want it to contain %q", msg, "slot 2 busy")
		}
	}()
	That(false, "slot %d busy", 2)
}
