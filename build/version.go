package build

// Version is the semantic version of this module, bumped on every release
// that changes on-disk wallet document compatibility or wire protocol
// expectations.
const Version = "0.1.0"
