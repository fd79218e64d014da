//go:build unix

package web

import (
	"os/exec"
	"syscall"
)

// setupPTYCommand makes the pty the controlling terminal of the session's
// command. Shells need this for job control.
func setupPTYCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true, // Create new session
		Setctty: true, // Set controlling terminal
		Ctty:    0,    // Use stdin (which will be the PTY slave)
	}
}
