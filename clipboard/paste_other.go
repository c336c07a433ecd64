//go:build !linux

package clipboard

import (
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

func Paste() error {
	if err := Init(); err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true) // Cmd+V on macOS
	} else {
		kb.HasCTRL(true)
	}
	return kb.Launching()
}

// Type copies text to the system clipboard and pastes it in one shot.
// Per-key synthesis is only available on linux via uinput, so the
// perChar pacing is ignored here.
func Type(text string, perChar time.Duration) error {
	if err := Copy(text); err != nil {
		return err
	}
	return Paste()
}

// Verify checks that the keyboard event binding is initialized.
func Verify() (string, error) {
	if err := Init(); err != nil {
		return "", err
	}
	return "keyboard event binding OK", nil
}
