package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: MURMUR_LOG_PATH environment variable
	envPath := os.Getenv("MURMUR_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	diagPath := filepath.Join(dir, "murmur_log.txt")
	var err error
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcript_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger().Level(zerolog.InfoLevel)

	logReady = true
	return nil
}

// SetVerbose lowers the level floor to Debug; the default hides Debug events.
func SetVerbose(on bool) {
	logMu.Lock()
	defer logMu.Unlock()
	if on {
		diagLog = diagLog.Level(zerolog.DebugLevel)
	} else {
		diagLog = diagLog.Level(zerolog.InfoLevel)
	}
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// StateChange records a session transition.
func StateChange(from, to string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("from", from).
		Str("to", to).
		Msg("state_change")
}

// BusyNoOp records a toggle that arrived while the session was not idle.
// Distinct from state_change so rapid double-presses are explainable from the log.
func BusyNoOp(state string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("state", state).
		Msg("busy_noop")
}

func DeviceLost(reason string) {
	if !logReady {
		return
	}
	diagLog.Error().
		Str("reason", reason).
		Msg("device_lost")
}

// SilenceSkip records a sealed buffer dropped before transcription.
func SilenceSkip(durationS float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("audio_s", durationS).
		Msg("silence_skip")
}

func NoSpeech(durationS float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("audio_s", durationS).
		Msg("no_speech")
}

func InjectFallback(reason string) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("reason", reason).
		Msg("inject_fallback")
}

// Transcription records pipeline accounting for one completed session.
func Transcription(audioS, transcribeMs, injectMs float64, model string, chars int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("model", model).
		Float64("audio_s", audioS).
		Float64("transcribe_ms", transcribeMs).
		Float64("inject_ms", injectMs).
		Int("chars", chars).
		Msg("transcription")
}

func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}

func SessionStart(model, device, combo string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("model", model).
		Str("device", device).
		Str("hotkey", combo).
		Msg("daemon_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("daemon_end")
}
