//go:build unix

package munin

import (
	"os/exec"
	"syscall"
)

// detach puts the daemon into its own session so it survives munin-node
// killing the fetching plugin's process group.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
