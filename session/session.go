// Package session implements the recording state machine that coordinates
// hotkey toggles, audio capture, transcription, and text injection. The
// session is single-flight: at most one capture/transcribe/inject pipeline
// exists at a time, and every collaborator failure is absorbed here so the
// daemon never dies with it.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"murmur/audio"
	"murmur/log"
)

type State int

const (
	Idle State = iota
	Recording
	Transcribing
	Injecting
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	case Injecting:
		return "injecting"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome of a toggle dispatch.
type Outcome int

const (
	OutcomeStarted Outcome = iota // Idle → Recording
	OutcomeStopped                // Recording → pipeline (or silence skip)
	OutcomeBusy                   // toggle ignored, session mid-pipeline
	OutcomeFailed                 // transition failed, session back at Idle
)

// Gateway is the boundary call into the offline recognition model.
type Gateway interface {
	Transcribe(ctx context.Context, pcm []byte, sampleRate, channels int) (string, error)
}

// Sink delivers final text into the focused application.
type Sink interface {
	Inject(text string) error
}

// Archiver optionally persists sealed recordings.
type Archiver interface {
	Save(pcm []byte, sampleRate, channels int) error
}

// Events receives UI-facing notifications. All methods are called off the
// hot path; implementations must not block.
type Events interface {
	RecordingStarted()
	RecordingStopped()
	AudioLevel(level float64)
	Transcript(text string, noSpeech bool)
	PipelineFailed(stage string, err error)
}

// Config is the immutable per-session snapshot of everything the pipeline
// needs. A hot-reload never touches a session that already started.
type Config struct {
	SampleRate         int
	Channels           int
	Device             *audio.DeviceInfo
	NoiseReduction     int
	SilenceThresholdDB float64
	TranscribeTimeout  time.Duration
	Model              string

	// Collaborators pinned for this session. Nil Gateway/Sink fall back to
	// the constructor defaults; a nil Archiver means no archiving.
	Gateway  Gateway
	Sink     Sink
	Archiver Archiver
}

type Session struct {
	// Events is optional and set once before the first toggle.
	Events Events

	actx audio.Context

	// defaults for Config snapshots that carry no collaborators
	gateway Gateway
	sink    Sink

	mu        sync.Mutex
	state     State
	cfg       Config
	startedAt time.Time
	buf       *Buffer
	capture   audio.CaptureDevice
	done      chan struct{}
	completed int
}

func New(actx audio.Context, gateway Gateway, sink Sink) *Session {
	done := make(chan struct{})
	close(done)
	return &Session{
		actx:    actx,
		gateway: gateway,
		sink:    sink,
		state:   Idle,
		done:    done,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartedAt reports when the current recording began; zero when not recording.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Recording {
		return time.Time{}
	}
	return s.startedAt
}

// Done returns a channel closed when the pipeline spawned by the most recent
// Recording→Transcribing transition has fully finished. Closed immediately
// when no pipeline is in flight.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Completed counts sessions that delivered text to the sink.
func (s *Session) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Toggle dispatches one hotkey event. Serialized by the caller's event loop;
// safe against concurrent device-loss callbacks.
func (s *Session) Toggle(cfg Config) Outcome {
	return s.ToggleFunc(func() Config { return cfg })
}

// ToggleFunc is Toggle with the config snapshot taken atomically with the
// Idle check, so a session finishing in parallel can never start the next one
// on a stale or zero snapshot. provide runs under the session lock only when
// the toggle actually starts a recording; it must not call back into the
// session.
func (s *Session) ToggleFunc(provide func() Config) Outcome {
	s.mu.Lock()
	switch s.state {
	case Idle:
		return s.startLocked(provide())
	case Recording:
		return s.stopLocked()
	default:
		st := s.state
		s.mu.Unlock()
		// Not an error: the session is busy and the press must be traceable.
		log.BusyNoOp(st.String())
		return OutcomeBusy
	}
}

// startLocked: Idle → Recording. Releases the lock before returning.
func (s *Session) startLocked(cfg Config) Outcome {
	if cfg.Gateway == nil {
		cfg.Gateway = s.gateway
	}
	if cfg.Sink == nil {
		cfg.Sink = s.sink
	}

	capture, err := s.actx.NewCapture(cfg.Device, audio.CaptureConfig{
		SampleRate: uint32(cfg.SampleRate),
		Channels:   uint32(cfg.Channels),
	})
	if err != nil {
		s.failLocked("device", err)
		return OutcomeFailed
	}

	buf := NewBuffer(cfg.SampleRate, cfg.Channels)
	capture.SetCallback(func(data []byte, frameCount uint32) {
		if err := buf.Append(data, frameCount); err != nil {
			// Frame raced the seal; sealing won, drop it.
			log.Debugf("late capture frame dropped: %v", err)
			return
		}
		if ev := s.Events; ev != nil {
			ev.AudioLevel(Level(data))
		}
	})
	capture.SetErrorCallback(func(err error) {
		s.deviceLost(err)
	})

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		s.failLocked("device", err)
		return OutcomeFailed
	}

	s.cfg = cfg
	s.buf = buf
	s.capture = capture
	s.startedAt = time.Now()
	s.setStateLocked(Recording)
	s.mu.Unlock()

	if ev := s.Events; ev != nil {
		ev.RecordingStarted()
	}
	return OutcomeStarted
}

// stopLocked: Recording → Transcribing (or straight to Idle on silence).
// Releases the lock before returning.
func (s *Session) stopLocked() Outcome {
	s.releaseCaptureLocked()

	buf := s.buf
	s.buf = nil
	buf.Seal()

	cfg := s.cfg
	if cfg.Archiver != nil && buf.Frames() > 0 {
		archiver := cfg.Archiver
		pcm := buf.PCM()
		go func() {
			if err := archiver.Save(pcm, cfg.SampleRate, cfg.Channels); err != nil {
				log.Warnf("archive failed: %v", err)
			}
		}()
	}

	gated, silent := Gate{Level: cfg.NoiseReduction, ThresholdDB: cfg.SilenceThresholdDB}.
		Apply(buf.PCM(), cfg.SampleRate, cfg.Channels)

	if buf.Frames() == 0 || silent {
		log.SilenceSkip(buf.Duration().Seconds())
		s.setStateLocked(Idle)
		s.mu.Unlock()
		if ev := s.Events; ev != nil {
			ev.RecordingStopped()
			ev.Transcript("", true)
		}
		return OutcomeStopped
	}

	s.setStateLocked(Transcribing)
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	if ev := s.Events; ev != nil {
		ev.RecordingStopped()
	}
	go s.runPipeline(cfg, gated, buf.Duration(), done)
	return OutcomeStopped
}

// runPipeline carries one sealed buffer through transcription and injection.
// Runs on its own goroutine; the event loop stays free to observe (and
// refuse) further toggles.
func (s *Session) runPipeline(cfg Config, pcm []byte, audioDur time.Duration, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TranscribeTimeout)
	defer cancel()

	transcribeStart := time.Now()
	text, err := cfg.Gateway.Transcribe(ctx, pcm, cfg.SampleRate, cfg.Channels)
	transcribeMs := float64(time.Since(transcribeStart).Milliseconds())
	if err != nil {
		s.fail("transcribe", err)
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.NoSpeech(audioDur.Seconds())
		s.mu.Lock()
		s.setStateLocked(Idle)
		s.mu.Unlock()
		if ev := s.Events; ev != nil {
			ev.Transcript("", true)
		}
		return
	}

	s.mu.Lock()
	s.setStateLocked(Injecting)
	s.mu.Unlock()

	injectStart := time.Now()
	injectErr := cfg.Sink.Inject(text)
	injectMs := float64(time.Since(injectStart).Milliseconds())

	// Sink failure is reported but never blocks the next session.
	if injectErr != nil {
		log.Errorf("inject failed: %v", injectErr)
		if ev := s.Events; ev != nil {
			ev.PipelineFailed("inject", injectErr)
		}
	} else {
		if ev := s.Events; ev != nil {
			ev.Transcript(text, false)
		}
	}

	log.Transcription(audioDur.Seconds(), transcribeMs, injectMs, cfg.Model, len(text))
	log.TranscriptionText(text)

	s.mu.Lock()
	if injectErr == nil {
		s.completed++
	}
	s.setStateLocked(Idle)
	s.mu.Unlock()
}

// deviceLost handles a capture backend error. Only meaningful while
// Recording; a stale callback firing later is ignored.
func (s *Session) deviceLost(err error) {
	s.mu.Lock()
	if s.state != Recording {
		s.mu.Unlock()
		return
	}
	log.DeviceLost(err.Error())
	s.releaseCaptureLocked()
	if s.buf != nil {
		s.buf.Seal()
		s.buf = nil
	}
	s.failLocked("device lost", err)
}

// releaseCaptureLocked stops and closes the capture device. Guaranteed on
// every exit path out of Recording so no handle leaks across sessions.
func (s *Session) releaseCaptureLocked() {
	if s.capture == nil {
		return
	}
	capture := s.capture
	s.capture = nil
	capture.ClearCallback()
	capture.Stop()
	capture.Close()
}

// fail transitions to Failed then immediately drains to Idle; the Failed
// state is observable in the log, never sticky.
func (s *Session) fail(stage string, err error) {
	s.mu.Lock()
	s.failLocked(stage, err)
}

// failLocked releases the lock.
func (s *Session) failLocked(stage string, err error) {
	log.Errorf("session failed (%s): %v", stage, err)
	s.setStateLocked(Failed)
	s.setStateLocked(Idle)
	s.mu.Unlock()
	if ev := s.Events; ev != nil {
		ev.PipelineFailed(stage, err)
	}
}

func (s *Session) setStateLocked(next State) {
	if s.state == next {
		return
	}
	log.StateChange(s.state.String(), next.String())
	s.state = next
}
