//go:build windows

package pipeline

import "os"

// Windows has no POSIX signals; abnormal terminations surface as exit
// codes instead.
func terminationSignal(_ *os.ProcessState) (string, bool) {
	return "", false
}
