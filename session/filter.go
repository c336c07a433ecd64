package session

import (
	"encoding/binary"
	"math"
)

// The gate inspects fixed 20ms windows, the granularity whisper-style models
// treat as a minimal acoustic event.
const gateWindowMs = 20

// attenuation per noise_reduction_level for windows under the threshold.
// Level 0 leaves the signal untouched.
var gateAttenuation = [4]float64{1.0, 0.5, 0.25, 0.0}

// Gate is the advisory pre-filter applied to a sealed buffer before the
// non-empty decision: quality shaping, not a correctness concern.
type Gate struct {
	Level       int     // 0-3
	ThresholdDB float64 // dBFS, e.g. -40
}

// Apply returns the gated PCM and whether the entire buffer sat below the
// silence threshold. A silent buffer must never reach the transcriber.
func (g Gate) Apply(pcm []byte, sampleRate, channels int) (out []byte, silent bool) {
	if len(pcm) == 0 {
		return pcm, true
	}
	windowBytes := sampleRate * gateWindowMs / 1000 * channels * bytesPerSample
	if windowBytes == 0 {
		return pcm, true
	}

	level := g.Level
	if level < 0 {
		level = 0
	}
	if level > 3 {
		level = 3
	}
	atten := gateAttenuation[level]

	out = make([]byte, 0, len(pcm))
	silent = true
	for pos := 0; pos < len(pcm); pos += windowBytes {
		end := min(pos+windowBytes, len(pcm))
		window := pcm[pos:end]
		if rmsDB(window) >= g.ThresholdDB {
			silent = false
			out = append(out, window...)
			continue
		}
		if atten == 1.0 {
			out = append(out, window...)
		} else {
			out = append(out, attenuate(window, atten)...)
		}
	}
	return out, silent
}

// rmsDB computes the RMS level of a PCM16 window in dBFS. A digitally silent
// window is -inf.
func rmsDB(window []byte) float64 {
	n := len(window) / bytesPerSample
	if n == 0 {
		return math.Inf(-1)
	}
	var sumSquares float64
	for i := 0; i+1 < len(window); i += bytesPerSample {
		sample := int16(binary.LittleEndian.Uint16(window[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	rms := math.Sqrt(sumSquares / float64(n))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// Level reports a 0..1 RMS level for UI metering.
func Level(window []byte) float64 {
	n := len(window) / bytesPerSample
	if n == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(window); i += bytesPerSample {
		sample := int16(binary.LittleEndian.Uint16(window[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(n))
}

func attenuate(window []byte, factor float64) []byte {
	out := make([]byte, len(window))
	for i := 0; i+1 < len(window); i += bytesPerSample {
		sample := int16(binary.LittleEndian.Uint16(window[i:]))
		binary.LittleEndian.PutUint16(out[i:], uint16(int16(float64(sample)*factor)))
	}
	return out
}
