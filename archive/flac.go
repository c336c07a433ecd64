package archive

import (
	"bytes"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	bitsPerSample = 16
	blockSize     = 4096
)

// encodeFLAC compresses little-endian PCM16 into a FLAC stream.
func encodeFLAC(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	var buf bytes.Buffer
	info := &meta.StreamInfo{
		BlockSizeMin:  blockSize,
		BlockSizeMax:  blockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     uint8(channels),
		BitsPerSample: bitsPerSample,
		NSamples:      0,
	}
	enc, err := flac.NewEncoder(&buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)

	samples := decodePCM16(pcm)
	perBlock := blockSize * channels
	for off := 0; off < len(samples); off += perBlock {
		end := off + perBlock
		if end > len(samples) {
			end = len(samples)
		}
		if err := writeBlock(enc, samples[off:end], sampleRate, channels); err != nil {
			return nil, err
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing flac stream: %w", err)
	}
	return buf.Bytes(), nil
}

func writeBlock(enc *flac.Encoder, block []int32, sampleRate, channels int) error {
	perChannel := len(block) / channels

	subframes := make([]*frame.Subframe, channels)
	for ch := 0; ch < channels; ch++ {
		chSamples := make([]int32, perChannel)
		for i := 0; i < perChannel; i++ {
			chSamples[i] = block[i*channels+ch]
		}
		subframes[ch] = &frame.Subframe{
			SubHeader: frame.SubHeader{
				Pred: frame.PredVerbatim,
			},
			Samples:  chSamples,
			NSamples: perChannel,
		}
	}

	chLayout := frame.ChannelsMono
	if channels == 2 {
		chLayout = frame.ChannelsLR
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(perChannel),
			SampleRate:    uint32(sampleRate),
			Channels:      chLayout,
			BitsPerSample: bitsPerSample,
		},
		Subframes: subframes,
	}

	if err := enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	return nil
}

func decodePCM16(pcm []byte) []int32 {
	samples := make([]int32, len(pcm)/2)
	for i := range samples {
		samples[i] = int32(int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8))
	}
	return samples
}
