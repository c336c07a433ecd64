// Package daemon manages the background instance: pidfile bookkeeping,
// re-exec into the background, and status/stop for the CLI.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"murmur/config"
)

// Child processes spawned by Background carry this to skip re-exec.
const bgEnv = "_MURMUR_BG"

var ErrNotRunning = errors.New("daemon is not running")

func PidfilePath() string {
	return filepath.Join(config.Dir(), "murmur.pid")
}

// InBackground reports whether this process is the re-exec'd child.
func InBackground() bool {
	return os.Getenv(bgEnv) != ""
}

// Background re-execs the current binary detached from the terminal and
// returns. The caller should exit afterwards.
func Background(extraArgs ...string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable: %w", err)
	}
	args := append(os.Args[1:], extraArgs...)
	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), bgEnv+"=1")
	devnull, err := os.Open(os.DevNull)
	if err != nil {
		return err
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
	return cmd.Start()
}

// WritePidfile records this process's pid. An existing pidfile for a live
// process is an error; a stale one is replaced.
func WritePidfile() error {
	path := PidfilePath()
	if pid, err := readPid(path); err == nil && alive(pid) {
		return fmt.Errorf("already running (pid %d)", pid)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func RemovePidfile() {
	os.Remove(PidfilePath())
}

// Status returns the pid of the running daemon, or ErrNotRunning. A stale
// pidfile is cleaned up along the way.
func Status() (int, error) {
	path := PidfilePath()
	pid, err := readPid(path)
	if err != nil {
		return 0, ErrNotRunning
	}
	if !alive(pid) {
		os.Remove(path)
		return 0, ErrNotRunning
	}
	return pid, nil
}

// Stop signals the running daemon to shut down.
func Stop() error {
	pid, err := Status()
	if err != nil {
		return err
	}
	if err := terminate(pid); err != nil {
		return fmt.Errorf("stopping pid %d: %w", pid, err)
	}
	return nil
}

func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed pidfile %s", path)
	}
	return pid, nil
}
