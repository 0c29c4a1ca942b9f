//go:build unix

package launcher

import "syscall"

// detachAttr puts the child in its own session so it outlives the launcher's
// terminal.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
