// +build dev

package build

// Release is "dev" when the package is built with the dev build tag.
const Release = "dev"
