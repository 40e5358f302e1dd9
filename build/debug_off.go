// +build !debug

package build

// DEBUG indicates whether this is a debug build. When true, Critical
// panics instead of only logging, surfacing invariant violations loudly
// during development.
const DEBUG = false
