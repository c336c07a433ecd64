// Package config loads the murmur configuration: compiled-in defaults
// overlaid with the user's JSON file. A loaded Config is treated as an
// immutable snapshot; Store hands the current snapshot to each new session.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Device     string `json:"device"`

	// NoiseReductionLevel 0 disables the gate; 1-3 attenuate sub-threshold
	// audio progressively harder.
	NoiseReductionLevel int     `json:"noise_reduction_level"`
	SilenceThresholdDB  float64 `json:"silence_threshold_db"`
}

type WhisperConfig struct {
	Model          string `json:"model"`
	Language       string `json:"language"`
	Binary         string `json:"binary"`
	ModelDir       string `json:"model_dir"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout is TimeoutSeconds as a duration.
func (w WhisperConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

type TypingConfig struct {
	// SpeedSecondsPerChar is the delay between simulated keystrokes.
	SpeedSecondsPerChar float64 `json:"speed_seconds_per_char"`
}

// PerChar is the keystroke pacing as a duration.
func (t TypingConfig) PerChar() time.Duration {
	return time.Duration(t.SpeedSecondsPerChar * float64(time.Second))
}

type LoggingConfig struct {
	Level string `json:"level"`
}

type Config struct {
	Hotkey     string        `json:"hotkey"`
	Audio      AudioConfig   `json:"audio"`
	Whisper    WhisperConfig `json:"whisper"`
	Typing     TypingConfig  `json:"typing"`
	ArchiveDir string        `json:"archive_dir"`
	Logging    LoggingConfig `json:"logging"`
}

func Default() *Config {
	return &Config{
		Hotkey: "ctrl+alt+v",
		Audio: AudioConfig{
			SampleRate:          16000,
			Channels:            1,
			NoiseReductionLevel: 1,
			SilenceThresholdDB:  -40.0,
		},
		Whisper: WhisperConfig{
			Model:          "small",
			Binary:         "whisper-cli",
			ModelDir:       defaultModelDir(),
			TimeoutSeconds: 120,
		},
		Typing:  TypingConfig{SpeedSecondsPerChar: 0},
		Logging: LoggingConfig{Level: "info"},
	}
}

func defaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".local", "share", "murmur", "models")
}

// Dir returns the user configuration directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "murmur")
}

// Path returns the user configuration file path.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads path over the defaults. A missing file is not an error; a
// malformed one is, so a typo never silently reverts the whole config.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.validate()
	return cfg, nil
}

var validSampleRates = map[int]bool{8000: true, 16000: true, 22050: true, 44100: true, 48000: true}

func (c *Config) validate() {
	if !validSampleRates[c.Audio.SampleRate] {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		c.Audio.Channels = 1
	}
	if c.Audio.NoiseReductionLevel < 0 {
		c.Audio.NoiseReductionLevel = 0
	}
	if c.Audio.NoiseReductionLevel > 3 {
		c.Audio.NoiseReductionLevel = 3
	}
	if c.Audio.SilenceThresholdDB > 0 {
		c.Audio.SilenceThresholdDB = -c.Audio.SilenceThresholdDB
	}
	if c.Whisper.TimeoutSeconds < 5 {
		c.Whisper.TimeoutSeconds = 120
	}
	if c.Whisper.Binary == "" {
		c.Whisper.Binary = "whisper-cli"
	}
	if c.Typing.SpeedSecondsPerChar < 0 {
		c.Typing.SpeedSecondsPerChar = 0
	}
	if c.Hotkey == "" {
		c.Hotkey = "ctrl+alt+v"
	}
	c.Whisper.ModelDir = expandHome(c.Whisper.ModelDir)
	c.ArchiveDir = expandHome(c.ArchiveDir)
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// Save writes the config as the user file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
