// Package fail implements the fabric's fatal-error convention: programmer
// errors and transport errors are not recoverable, so they are logged at
// critical severity and the process exits, mirroring the original's
// abort_if_not/fail helpers.
package fail

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

// If calls Now with the formatted message when cond is false.
func If(cond bool, format string, args ...interface{}) {
	if !cond {
		Now(format, args...)
	}
}

// Now logs a critical diagnostic and terminates the process via log.Crit,
// which exits after logging. The error return lets callers write
// `return fail.Now(...)` inside functions that must satisfy an
// error-returning signature; Now itself never returns control.
func Now(format string, args ...interface{}) error {
	log.Crit(fmt.Sprintf(format, args...))
	return nil
}
