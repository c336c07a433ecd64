// Package transcriber is the boundary to the offline recognition model.
// The production backend shells out to whisper.cpp; the daemon never links
// the model in-process, so a crashing decode can't take the daemon with it.
package transcriber

import (
	"context"
	"errors"
)

var (
	// ErrEmptyAudio: empty buffers are filtered upstream, but the gateway
	// rejects them defensively rather than burning seconds on nothing.
	ErrEmptyAudio = errors.New("empty audio buffer")

	// ErrModelNotFound: the model file is missing from the model directory.
	ErrModelNotFound = errors.New("model file not found")
)

// Gateway converts a sealed PCM16 buffer into text. Implementations are
// synchronous, potentially seconds-slow, and must honor ctx cancellation.
type Gateway interface {
	Transcribe(ctx context.Context, pcm []byte, sampleRate, channels int) (string, error)
}

var validModels = map[string]bool{
	"tiny": true, "tiny.en": true,
	"base": true, "base.en": true,
	"small": true, "small.en": true,
	"medium": true, "medium.en": true,
	"large": true, "large-v2": true, "large-v3": true,
}

// NormalizeModel validates a configured model name, falling back to "small"
// for anything unknown.
func NormalizeModel(name string) string {
	if validModels[name] {
		return name
	}
	return "small"
}
