package session

import (
	"encoding/binary"
	"math"
	"testing"
)

// constPCM builds n samples of a constant amplitude (a crude loudness knob:
// amplitude 16384 ≈ -6 dBFS, 100 ≈ -50 dBFS).
func constPCM(n int, amplitude int16) []byte {
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(amplitude))
	}
	return pcm
}

func TestRMSDB(t *testing.T) {
	tests := []struct {
		amplitude int16
		wantDB    float64
	}{
		{32767, 0},
		{16384, -6.02},
		{3277, -20},
		{104, -50},
	}
	for _, tt := range tests {
		got := rmsDB(constPCM(320, tt.amplitude))
		if math.Abs(got-tt.wantDB) > 0.3 {
			t.Errorf("rmsDB(amp=%d) = %.2f, want ≈%.2f", tt.amplitude, got, tt.wantDB)
		}
	}
}

func TestRMSDBSilenceIsNegInf(t *testing.T) {
	if got := rmsDB(constPCM(320, 0)); !math.IsInf(got, -1) {
		t.Errorf("rmsDB(silence) = %v, want -inf", got)
	}
}

func TestGateSilentDetection(t *testing.T) {
	g := Gate{Level: 0, ThresholdDB: -40}

	if _, silent := g.Apply(constPCM(16000, 0), 16000, 1); !silent {
		t.Error("digital silence not reported silent")
	}
	// -50 dB hum, below the -40 dB threshold
	if _, silent := g.Apply(constPCM(16000, 100), 16000, 1); !silent {
		t.Error("sub-threshold hum not reported silent")
	}
	// loud signal
	if _, silent := g.Apply(constPCM(16000, 8000), 16000, 1); silent {
		t.Error("loud signal reported silent")
	}
}

func TestGateOneLoudWindowMeansNotSilent(t *testing.T) {
	// one 20 ms loud window embedded in a second of near-silence
	pcm := constPCM(16000, 10)
	loud := constPCM(320, 12000)
	copy(pcm[8000*2:], loud)

	_, silent := Gate{Level: 0, ThresholdDB: -40}.Apply(pcm, 16000, 1)
	if silent {
		t.Error("buffer with one loud window reported silent")
	}
}

func TestGateLevelZeroPassesThrough(t *testing.T) {
	pcm := constPCM(16000, 50) // quiet, below threshold
	out, _ := Gate{Level: 0, ThresholdDB: -40}.Apply(pcm, 16000, 1)
	if len(out) != len(pcm) {
		t.Fatalf("output length %d != input %d", len(out), len(pcm))
	}
	for i := range pcm {
		if out[i] != pcm[i] {
			t.Fatal("level 0 modified the signal")
		}
	}
}

func TestGateAttenuationLevels(t *testing.T) {
	sample := func(out []byte) int16 {
		return int16(binary.LittleEndian.Uint16(out))
	}
	pcm := constPCM(320, 100) // one sub-threshold window

	out1, _ := Gate{Level: 1, ThresholdDB: -40}.Apply(pcm, 16000, 1)
	if got := sample(out1); got != 50 {
		t.Errorf("level 1 sample = %d, want 50", got)
	}
	out2, _ := Gate{Level: 2, ThresholdDB: -40}.Apply(pcm, 16000, 1)
	if got := sample(out2); got != 25 {
		t.Errorf("level 2 sample = %d, want 25", got)
	}
	out3, _ := Gate{Level: 3, ThresholdDB: -40}.Apply(pcm, 16000, 1)
	if got := sample(out3); got != 0 {
		t.Errorf("level 3 sample = %d, want 0", got)
	}
}

func TestGateLeavesLoudWindowsAlone(t *testing.T) {
	pcm := constPCM(320, 12000)
	out, _ := Gate{Level: 3, ThresholdDB: -40}.Apply(pcm, 16000, 1)
	if got := int16(binary.LittleEndian.Uint16(out)); got != 12000 {
		t.Errorf("loud window attenuated to %d", got)
	}
}

func TestGateEmptyInput(t *testing.T) {
	out, silent := Gate{Level: 1, ThresholdDB: -40}.Apply(nil, 16000, 1)
	if !silent {
		t.Error("empty input not silent")
	}
	if len(out) != 0 {
		t.Errorf("empty input produced %d bytes", len(out))
	}
}
