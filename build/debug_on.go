// +build debug

package build

// DEBUG indicates whether this is a debug build.
const DEBUG = true
