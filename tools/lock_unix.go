//go:build unix

package tools

import "syscall"

// isProcessRunning sends signal 0 to pid
func isProcessRunning(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	if err == nil {
		return true
	}

	// EPERM: the process exists but belongs to someone else
	return err == syscall.EPERM
}
