package build

import (
	"fmt"
	"os"
)

// Critical should be called if a sanity check has failed, indicating a
// developer error. Critical is called with varying arguments throughout
// the codebase, often in situations of various importance, but all of
// which indicate a bug of some sort. In debug builds, Critical panics so
// the invariant violation cannot be missed. In standard builds it prints
// to stderr and continues, because a wallet process serving a user should
// not crash on an assertion that - in production - might merely indicate
// a corrupted cache rather than a guaranteed corruption of state.
func Critical(v ...interface{}) {
	msg := composeErrorMessage("Critical", v...)
	if DEBUG {
		panic(msg)
	}
	fmt.Fprintln(os.Stderr, msg)
}

// Severe is called in situations that are worth flagging loudly but that
// the caller has decided it can recover from (for example, a non-fatal
// inconsistency detected while computing a best-effort accounting value).
// Unlike Critical it never panics, even in debug builds.
func Severe(v ...interface{}) {
	fmt.Fprintln(os.Stderr, composeErrorMessage("Severe", v...))
}

func composeErrorMessage(label string, v ...interface{}) string {
	return fmt.Sprintf("[%s] %s", label, fmt.Sprint(v...))
}
