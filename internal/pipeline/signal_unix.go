//go:build !windows

package pipeline

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// terminationSignal reports the signal that ended the process, when it was
// killed by one rather than exiting.
func terminationSignal(state *os.ProcessState) (string, bool) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return "", false
	}
	return unix.SignalName(ws.Signal()), true
}
