package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestReadPid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur.pid")
	if err := os.WriteFile(path, []byte("1234\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pid, err := readPid(path)
	if err != nil {
		t.Fatal(err)
	}
	if pid != 1234 {
		t.Errorf("pid = %d", pid)
	}
}

func TestReadPidMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur.pid")
	for _, contents := range []string{"", "abc", "-1", "0"} {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := readPid(path); err == nil {
			t.Errorf("readPid accepted %q", contents)
		}
	}
}

func TestReadPidMissingFile(t *testing.T) {
	if _, err := readPid(filepath.Join(t.TempDir(), "nope.pid")); err == nil {
		t.Error("expected error for missing pidfile")
	}
}

func TestAliveSelf(t *testing.T) {
	if !alive(os.Getpid()) {
		t.Error("own process reported dead")
	}
}

func TestAliveBogusPid(t *testing.T) {
	// Max pid on linux defaults to 4194304; this one should never exist.
	if alive(1<<30 + 7) {
		t.Skip("improbable pid is alive on this system")
	}
}

func TestPidfileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur.pid")
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		t.Fatal(err)
	}
	pid, err := readPid(path)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() || !alive(pid) {
		t.Errorf("round trip failed: pid=%d", pid)
	}
}
