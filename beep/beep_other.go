//go:build !linux

package beep

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
)

var (
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	// Playback state, read by the device callback.
	playBuf atomic.Pointer[[]byte]
	playPos atomic.Uint32
	playMu  sync.Mutex
)

func initSound() {
	var err error
	malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	device, err = malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{
		Data: dataCallback,
	})
	if err != nil {
		malgoCtx.Uninit()
		malgoCtx = nil
	}
}

func dataCallback(pOutput, _ []byte, frameCount uint32) {
	samples := playBuf.Load()
	if samples == nil || len(*samples) == 0 {
		zero(pOutput)
		return
	}

	pos := playPos.Load()
	total := uint32(len(*samples))
	want := frameCount * 2
	remaining := total - pos

	if remaining == 0 {
		playBuf.Store(nil)
		zero(pOutput)
		return
	}
	if want > remaining {
		want = remaining
	}
	copy(pOutput[:want], (*samples)[pos:pos+want])
	playPos.Store(pos + want)
	zero(pOutput[want : frameCount*2])
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// renderTone synthesizes the tone as mono PCM16 bytes.
func renderTone(t tone) []byte {
	n := int(float64(sampleRate) * t.duration)
	one := make([]byte, n*2)
	for i := 0; i < n; i++ {
		ts := float64(i) / float64(sampleRate)
		envelope := math.Exp(-ts * t.decay)
		s := int16(math.Sin(2*math.Pi*t.freq*ts) * 32767 * t.volume * envelope)
		one[i*2] = byte(s)
		one[i*2+1] = byte(s >> 8)
	}
	if t.repeat == 0 {
		return one
	}
	gap := make([]byte, int(float64(sampleRate)*t.gap)*2)
	out := make([]byte, 0, (len(one)+len(gap))*(t.repeat+1))
	out = append(out, one...)
	for i := 0; i < t.repeat; i++ {
		out = append(out, gap...)
		out = append(out, one...)
	}
	return out
}

func playTone(t tone) {
	if malgoCtx == nil || device == nil {
		return
	}
	samples := renderTone(t)
	if len(samples) == 0 {
		return
	}

	playMu.Lock()
	defer playMu.Unlock()

	// Restart from a clean state so overlapping cues do not stack.
	device.Stop()
	buf := samples
	playPos.Store(0)
	playBuf.Store(&buf)
	if err := device.Start(); err != nil {
		playBuf.Store(nil)
		return
	}

	// Wait for the callback to drain the buffer, then stop.
	deadline := time.Now().Add(2 * time.Second)
	for playBuf.Load() != nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	device.Stop()
}
