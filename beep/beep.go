// Package beep emits short audible cues so dictation works eyes-free:
// a tick when recording starts, a lower tick when it stops, a double
// beep on errors, and a flat buzz when a toggle lands while a previous
// dictation is still processing.
package beep

import "sync"

var (
	disabled bool
	initOnce sync.Once
)

func Disable() { disabled = true }

const sampleRate = 44100

type tone struct {
	freq     float64
	duration float64
	volume   float64
	decay    float64
	repeat   int     // extra repetitions after the first
	gap      float64 // silence between repetitions
}

var (
	startTone = tone{freq: 1200, duration: 0.2, volume: 0.5, decay: 60}
	endTone   = tone{freq: 900, duration: 0.2, volume: 0.5, decay: 40}
	errorTone = tone{freq: 350, duration: 0.08, volume: 0.6, decay: 30, repeat: 1, gap: 0.05}
	busyTone  = tone{freq: 500, duration: 0.06, volume: 0.4, decay: 50}
)

func Init() {
	initOnce.Do(initSound)
}

func PlayStart() { play(startTone) }
func PlayEnd()   { play(endTone) }
func PlayError() { play(errorTone) }
func PlayBusy()  { play(busyTone) }

func play(t tone) {
	if disabled {
		return
	}
	initOnce.Do(initSound)
	go playTone(t)
}
