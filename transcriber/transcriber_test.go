package transcriber

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
)

func TestNormalizeModel(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"tiny", "tiny"},
		{"base.en", "base.en"},
		{"small", "small"},
		{"large-v3", "large-v3"},
		{"", "small"},
		{"gigantic", "small"},
		{"SMALL", "small"},
	}
	for _, c := range cases {
		if got := NormalizeModel(c.in); got != c.want {
			t.Errorf("NormalizeModel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestModelPath(t *testing.T) {
	w := NewWhisper("whisper-cli", "/models", "base", "en")
	if got := w.ModelPath(); got != "/models/ggml-base.bin" {
		t.Errorf("ModelPath() = %q", got)
	}
}

func TestMissingModelFile(t *testing.T) {
	w := NewWhisper("whisper-cli", t.TempDir(), "base", "")
	_, err := w.Transcribe(context.Background(), []byte{0, 0}, 16000, 1)
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestEmptyAudioRejected(t *testing.T) {
	w := NewWhisper("whisper-cli", t.TempDir(), "base", "")
	_, err := w.Transcribe(context.Background(), nil, 16000, 1)
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestWriteWAVHeader(t *testing.T) {
	pcm := make([]byte, 3200) // 100ms of 16kHz mono
	var buf bytes.Buffer
	if err := writeWAV(&buf, pcm, 16000, 1); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if len(b) != 44+len(pcm) {
		t.Fatalf("wav size = %d, want %d", len(b), 44+len(pcm))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != 16000 {
		t.Errorf("sample rate = %d", got)
	}
	if got := binary.LittleEndian.Uint16(b[22:24]); got != 1 {
		t.Errorf("channels = %d", got)
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d", got)
	}
}

func TestFakeBlocksUntilContextDone(t *testing.T) {
	f := &Fake{Text: "hi", Delay: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Transcribe(ctx, []byte{0, 0}, 16000, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
