//go:build linux

package beep

import (
	"math"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

func initSound() {}

// renderTone synthesizes the tone as interleaved stereo to match the
// output sink format.
func renderTone(t tone) []int16 {
	n := int(float64(sampleRate) * t.duration)
	one := make([]int16, n*2)
	for i := 0; i < n; i++ {
		ts := float64(i) / float64(sampleRate)
		envelope := math.Exp(-ts * t.decay)
		s := int16(math.Sin(2*math.Pi*t.freq*ts) * 32767 * t.volume * envelope)
		one[i*2] = s
		one[i*2+1] = s
	}
	if t.repeat == 0 {
		return one
	}
	gap := make([]int16, int(float64(sampleRate)*t.gap)*2)
	out := make([]int16, 0, (len(one)+len(gap))*(t.repeat+1))
	out = append(out, one...)
	for i := 0; i < t.repeat; i++ {
		out = append(out, gap...)
		out = append(out, one...)
	}
	return out
}

func playTone(t tone) {
	samples := renderTone(t)
	if len(samples) == 0 {
		return
	}
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}
