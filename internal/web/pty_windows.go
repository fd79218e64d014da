//go:build windows

package web

import (
	"os/exec"
)

// setupPTYCommand is a no-op on Windows, where xpty attaches the command
// to ConPTY itself.
func setupPTYCommand(*exec.Cmd) {}
