package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Whisper runs the whisper.cpp CLI against a temp WAV file and returns its
// stdout as the transcript.
type Whisper struct {
	binary   string // whisper-cli binary name or path
	modelDir string
	model    string
	language string // empty = auto-detect
}

func NewWhisper(binary, modelDir, model, language string) *Whisper {
	return &Whisper{
		binary:   binary,
		modelDir: modelDir,
		model:    NormalizeModel(model),
		language: language,
	}
}

func (w *Whisper) Model() string { return w.model }

// ModelPath resolves the ggml weight file for the configured model.
func (w *Whisper) ModelPath() string {
	return filepath.Join(w.modelDir, "ggml-"+w.model+".bin")
}

func (w *Whisper) Transcribe(ctx context.Context, pcm []byte, sampleRate, channels int) (string, error) {
	if len(pcm) == 0 {
		return "", ErrEmptyAudio
	}

	modelPath := w.ModelPath()
	if _, err := os.Stat(modelPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	}

	tmp, err := os.CreateTemp("", "murmur-*.wav")
	if err != nil {
		return "", fmt.Errorf("creating temp wav: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeWAV(tmp, pcm, sampleRate, channels); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp wav: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp wav: %w", err)
	}

	// -nt: no timestamps, -np: no progress chatter; stdout is the transcript.
	args := []string{
		"-m", modelPath,
		"-f", tmp.Name(),
		"-nt", "-np",
	}
	if w.language != "" {
		args = append(args, "-l", w.language)
	}

	cmd := exec.CommandContext(ctx, w.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("transcription timed out: %w", ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("whisper: %s", msg)
	}

	return strings.TrimSpace(stdout.String()), nil
}
