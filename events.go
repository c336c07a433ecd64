package main

import (
	"murmur/beep"
)

// uiEvents bridges session callbacks to the optional TUI and the audible
// cues. Callbacks arrive on session goroutines and must return quickly.
type uiEvents struct{}

func (uiEvents) RecordingStarted() {
	tuiSend(RecordingStartMsg{})
	beep.PlayStart()
}

func (uiEvents) RecordingStopped() {
	tuiSend(RecordingStopMsg{})
	beep.PlayEnd()
}

func (uiEvents) AudioLevel(level float64) {
	tuiSend(AudioLevelMsg{Level: level})
}

func (uiEvents) Transcript(text string, noSpeech bool) {
	tuiSend(TranscriptionMsg{Text: text, NoSpeech: noSpeech})
}

func (uiEvents) PipelineFailed(stage string, err error) {
	logToTUI("Error (%s): %v", stage, err)
	beep.PlayError()
}
