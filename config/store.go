package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store holds the current immutable snapshot. Watch replaces the snapshot on
// file changes; a running session keeps whatever Snapshot returned when it
// started, so a reload only affects the next session.
type Store struct {
	mu      sync.RWMutex
	current *Config
	path    string
	watcher *fsnotify.Watcher
}

func NewStore(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{current: cfg, path: path}, nil
}

func (s *Store) Snapshot() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads the file and swaps the snapshot. Invalid files keep the
// previous snapshot and return the parse error.
func (s *Store) Reload() error {
	cfg, err := Load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return nil
}

// Watch starts an fsnotify watcher on the directory holding the config file
// and calls onReload after every successful snapshot swap. Watching the
// directory rather than the file survives editors that replace-on-save.
func (s *Store) Watch(onReload func(*Config), onError func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	target := filepath.Clean(s.path)

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := s.Reload(); err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				if onReload != nil {
					onReload(s.Snapshot())
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			}
		}
	}()
	return nil
}

func (s *Store) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}
