package session

import (
	"errors"
	"sync"
	"time"
)

// ErrSealed is returned by Append once the buffer has been sealed. Sealing is
// the structural guarantee that the transcription pipeline reads an immutable
// buffer: late capture frames fail here instead of racing the reader.
var ErrSealed = errors.New("append to sealed buffer")

const bytesPerSample = 2 // PCM16

// Buffer accumulates PCM16 frames for one recording session. Append-only
// while recording, immutable after Seal.
type Buffer struct {
	mu         sync.Mutex
	pcm        []byte
	frames     uint64
	sealed     bool
	sampleRate int
	channels   int
}

func NewBuffer(sampleRate, channels int) *Buffer {
	return &Buffer{sampleRate: sampleRate, channels: channels}
}

func (b *Buffer) Append(data []byte, frameCount uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return ErrSealed
	}
	b.pcm = append(b.pcm, data...)
	b.frames += uint64(frameCount)
	return nil
}

// Seal makes the buffer immutable. Idempotent.
func (b *Buffer) Seal() {
	b.mu.Lock()
	b.sealed = true
	b.mu.Unlock()
}

func (b *Buffer) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}

// PCM returns the accumulated samples. Callers must Seal first; the returned
// slice is then stable.
func (b *Buffer) PCM() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pcm
}

func (b *Buffer) Frames() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *Buffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sampleRate == 0 {
		return 0
	}
	return time.Duration(float64(b.frames) / float64(b.sampleRate) * float64(time.Second))
}

func (b *Buffer) SampleRate() int { return b.sampleRate }
func (b *Buffer) Channels() int   { return b.channels }
