package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Hotkey != "ctrl+alt+v" {
		t.Errorf("default hotkey = %q", cfg.Hotkey)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 {
		t.Errorf("default audio = %d Hz / %d ch", cfg.Audio.SampleRate, cfg.Audio.Channels)
	}
	if cfg.Whisper.Model != "small" {
		t.Errorf("default model = %q", cfg.Whisper.Model)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want default 16000", cfg.Audio.SampleRate)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"hotkey":"ctrl+shift+space","audio":{"sample_rate":48000},"whisper":{"model":"base"}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Hotkey != "ctrl+shift+space" {
		t.Errorf("hotkey = %q", cfg.Hotkey)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("sample rate = %d", cfg.Audio.SampleRate)
	}
	if cfg.Whisper.Model != "base" {
		t.Errorf("model = %q", cfg.Whisper.Model)
	}
	// untouched keys keep defaults
	if cfg.Audio.Channels != 1 {
		t.Errorf("channels = %d, want default 1", cfg.Audio.Channels)
	}
}

func TestLoadMalformedFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestValidationClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"audio":{"sample_rate":12345,"channels":7,"noise_reduction_level":9,"silence_threshold_db":40},
		"whisper":{"timeout_seconds":1},
		"typing":{"speed_seconds_per_char":-0.5}
	}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want clamp to 16000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Channels != 1 {
		t.Errorf("channels = %d, want clamp to 1", cfg.Audio.Channels)
	}
	if cfg.Audio.NoiseReductionLevel != 3 {
		t.Errorf("noise level = %d, want clamp to 3", cfg.Audio.NoiseReductionLevel)
	}
	if cfg.Audio.SilenceThresholdDB != -40 {
		t.Errorf("threshold = %v, want -40 (positive input flipped)", cfg.Audio.SilenceThresholdDB)
	}
	if cfg.Whisper.TimeoutSeconds != 120 {
		t.Errorf("timeout = %d, want reset to 120", cfg.Whisper.TimeoutSeconds)
	}
	if cfg.Typing.SpeedSecondsPerChar != 0 {
		t.Errorf("typing speed = %v, want clamp to 0", cfg.Typing.SpeedSecondsPerChar)
	}
}

func TestStoreSnapshotImmutableAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"whisper":{"model":"tiny"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	first := store.Snapshot()
	if first.Whisper.Model != "tiny" {
		t.Fatalf("model = %q", first.Whisper.Model)
	}

	if err := os.WriteFile(path, []byte(`{"whisper":{"model":"base"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); err != nil {
		t.Fatal(err)
	}

	// the old snapshot is untouched; the new one sees the change
	if first.Whisper.Model != "tiny" {
		t.Errorf("old snapshot mutated to %q", first.Whisper.Model)
	}
	if got := store.Snapshot().Whisper.Model; got != "base" {
		t.Errorf("new snapshot = %q, want base", got)
	}
}

func TestWatchReloadsCustomPath(t *testing.T) {
	// the config lives outside the default config directory, as with -config
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"whisper":{"model":"tiny"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	reloaded := make(chan *Config, 1)
	err = store.Watch(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(`{"whisper":{"model":"base"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Whisper.Model != "base" {
			t.Errorf("reloaded model = %q, want base", cfg.Whisper.Model)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload for a config outside the default directory")
	}
}

func TestStoreReloadKeepsSnapshotOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"whisper":{"model":"tiny"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("{bad"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := store.Snapshot().Whisper.Model; got != "tiny" {
		t.Errorf("snapshot = %q after failed reload, want tiny", got)
	}
}
