//go:build !inflight_release

package assert

// Enabled reports whether contract checks run.
const Enabled = true
