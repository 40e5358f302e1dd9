// +build !testing,!dev

package build

// Release indicates the kind of release that is built, which determines
// default timings and the amount of extra runtime checking that is
// performed.
const Release = "standard"
