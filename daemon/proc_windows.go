//go:build windows

package daemon

import "os"

// Windows has no signal 0 probe; FindProcess only succeeds for live pids.
func alive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}

func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
