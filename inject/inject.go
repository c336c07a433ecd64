// Package inject delivers transcripts into the focused window. Synthetic
// keystrokes are the primary path; when typing fails the text goes through
// the clipboard with a single paste, and the previous clipboard contents
// are restored shortly after.
package inject

import (
	"fmt"
	"time"

	"murmur/clipboard"
	"murmur/log"
)

const restoreDelay = 600 * time.Millisecond

// Injector implements the sink used by the recording session. The strategy
// funcs default to the real clipboard package and are swappable in tests.
type Injector struct {
	PerChar time.Duration

	typeText  func(text string, perChar time.Duration) error
	copyText  func(text string) error
	readText  func() (string, error)
	paste     func() error
	restoreIn func(d time.Duration, f func())
}

func New(perChar time.Duration) *Injector {
	return &Injector{
		PerChar:   perChar,
		typeText:  clipboard.Type,
		copyText:  clipboard.Copy,
		readText:  clipboard.Read,
		paste:     clipboard.Paste,
		restoreIn: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Inject types text into the focused window, falling back to a single
// clipboard paste if typing fails. The fallback is attempted at most once;
// if both paths fail the transcript is lost and the error says so.
func (in *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}

	typeErr := in.typeText(text, in.PerChar)
	if typeErr == nil {
		return nil
	}
	log.InjectFallback(typeErr.Error())

	if err := in.pasteOnce(text); err != nil {
		return fmt.Errorf("typing failed (%v), clipboard fallback failed: %w", typeErr, err)
	}
	return nil
}

func (in *Injector) pasteOnce(text string) error {
	prev, readErr := in.readText()

	if err := in.copyText(text); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if err := in.paste(); err != nil {
		return fmt.Errorf("paste: %w", err)
	}

	// Put the user's clipboard back once the paste has landed.
	if readErr == nil && prev != "" {
		in.restoreIn(restoreDelay, func() {
			if err := in.copyText(prev); err != nil {
				log.Errorf("clipboard restore failed: %v", err)
			}
		})
	}
	return nil
}
