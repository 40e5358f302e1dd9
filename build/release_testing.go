// +build testing

package build

// Release is "testing" when the package is built with the testing build
// tag, shortening intervals that would otherwise make tests slow.
const Release = "testing"
