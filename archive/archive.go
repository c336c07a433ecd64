// Package archive keeps a FLAC copy of each dictation on disk. Archiving
// happens off the hot path; a failed write never blocks a transcription.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Dir struct {
	path string
	now  func() time.Time
}

func New(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	return &Dir{path: path, now: time.Now}, nil
}

// Save encodes pcm to FLAC and writes a timestamped file.
func (d *Dir) Save(pcm []byte, sampleRate, channels int) error {
	if len(pcm) == 0 {
		return nil
	}
	data, err := encodeFLAC(pcm, sampleRate, channels)
	if err != nil {
		return err
	}
	name := d.now().Format("murmur-20060102-150405.flac")
	return os.WriteFile(filepath.Join(d.path, name), data, 0o644)
}
