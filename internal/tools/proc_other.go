//go:build windows

package tools

import (
	"os/exec"
	"time"
)

func setProcAttr(cmd *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd, grace time.Duration, done <-chan struct{}) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
