// Package assert checks internal contracts of the frame lifecycle.
//
// Violations are caller bugs (double finish, destroying an invalid handle,
// flushing a busy frame). Default builds panic on them; builds with the
// inflight_release tag compile the checks out.
package assert

import "fmt"

// That panics with the formatted message when cond is false and checks are
// enabled.
func That(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(fmt.Sprintf("inflight: assertion failed: "+format, args...))
	}
}
