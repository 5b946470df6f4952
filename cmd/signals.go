package cmd

import (
	"os"
	"syscall"
)

// TerminationSignals are those signals that request a clean unmount.
// SIGABRT and friends are intentionally excluded: the Go runtime handles
// those itself (dumping a stack trace) and we don't want to race it.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
