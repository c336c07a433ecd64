package inject

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeStrategies struct {
	typed      []string
	copied     []string
	pasteCalls int
	clipboard  string

	typeErr  error
	copyErr  error
	pasteErr error
	readErr  error

	restores []func()
}

func newInjector(f *fakeStrategies) *Injector {
	in := New(0)
	in.typeText = func(text string, perChar time.Duration) error {
		if f.typeErr != nil {
			return f.typeErr
		}
		f.typed = append(f.typed, text)
		return nil
	}
	in.copyText = func(text string) error {
		if f.copyErr != nil {
			return f.copyErr
		}
		f.copied = append(f.copied, text)
		return nil
	}
	in.readText = func() (string, error) {
		return f.clipboard, f.readErr
	}
	in.paste = func() error {
		f.pasteCalls++
		return f.pasteErr
	}
	in.restoreIn = func(d time.Duration, fn func()) {
		f.restores = append(f.restores, fn)
	}
	return in
}

func TestTypingPrimary(t *testing.T) {
	f := &fakeStrategies{}
	in := newInjector(f)
	if err := in.Inject("hello"); err != nil {
		t.Fatal(err)
	}
	if len(f.typed) != 1 || f.typed[0] != "hello" {
		t.Errorf("typed = %v", f.typed)
	}
	if f.pasteCalls != 0 || len(f.copied) != 0 {
		t.Error("clipboard path used even though typing succeeded")
	}
}

func TestFallbackPastesExactlyOnce(t *testing.T) {
	f := &fakeStrategies{typeErr: errors.New("uinput unavailable")}
	in := newInjector(f)
	if err := in.Inject("hello"); err != nil {
		t.Fatal(err)
	}
	if f.pasteCalls != 1 {
		t.Errorf("paste calls = %d, want 1", f.pasteCalls)
	}
	if len(f.copied) != 1 || f.copied[0] != "hello" {
		t.Errorf("copied = %v", f.copied)
	}
}

func TestFallbackRestoresClipboard(t *testing.T) {
	f := &fakeStrategies{typeErr: errors.New("no device"), clipboard: "previous"}
	in := newInjector(f)
	if err := in.Inject("hello"); err != nil {
		t.Fatal(err)
	}
	if len(f.restores) != 1 {
		t.Fatalf("restore funcs = %d, want 1", len(f.restores))
	}
	f.restores[0]()
	if got := f.copied[len(f.copied)-1]; got != "previous" {
		t.Errorf("restored %q, want %q", got, "previous")
	}
}

func TestNoRestoreWhenClipboardEmpty(t *testing.T) {
	f := &fakeStrategies{typeErr: errors.New("no device")}
	in := newInjector(f)
	if err := in.Inject("hello"); err != nil {
		t.Fatal(err)
	}
	if len(f.restores) != 0 {
		t.Error("restore scheduled for empty clipboard")
	}
}

func TestBothPathsFail(t *testing.T) {
	f := &fakeStrategies{
		typeErr:  errors.New("no device"),
		pasteErr: errors.New("no display"),
	}
	in := newInjector(f)
	err := in.Inject("hello")
	if err == nil {
		t.Fatal("expected error when both paths fail")
	}
	if !strings.Contains(err.Error(), "no device") || !strings.Contains(err.Error(), "no display") {
		t.Errorf("error should name both failures: %v", err)
	}
	if f.pasteCalls != 1 {
		t.Errorf("paste calls = %d, want 1", f.pasteCalls)
	}
}

func TestEmptyTextIsNoOp(t *testing.T) {
	f := &fakeStrategies{typeErr: errors.New("should not be called")}
	in := newInjector(f)
	if err := in.Inject(""); err != nil {
		t.Fatal(err)
	}
	if f.pasteCalls != 0 {
		t.Error("paste called for empty text")
	}
}
