package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mewkiz/flac"
)

func tonePCM(samples int) []byte {
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16((i % 64) * 256)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pcm := tonePCM(10000) // spans multiple blocks plus a short tail
	data, err := encodeFLAC(pcm, 16000, 1)
	if err != nil {
		t.Fatal(err)
	}

	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if stream.Info.SampleRate != 16000 || stream.Info.NChannels != 1 {
		t.Fatalf("stream info = %d Hz, %d ch", stream.Info.SampleRate, stream.Info.NChannels)
	}

	want := decodePCM16(pcm)
	var got []int32
	for {
		f, err := stream.ParseNext()
		if err != nil {
			break
		}
		got = append(got, f.Subframes[0].Samples...)
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEncodeStereo(t *testing.T) {
	pcm := tonePCM(8192) // 4096 frames of 2 channels
	data, err := encodeFLAC(pcm, 44100, 2)
	if err != nil {
		t.Fatal(err)
	}
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if stream.Info.NChannels != 2 {
		t.Fatalf("channels = %d", stream.Info.NChannels)
	}
}

func TestEncodeRejectsBadChannels(t *testing.T) {
	if _, err := encodeFLAC(tonePCM(64), 16000, 3); err == nil {
		t.Fatal("expected error for 3 channels")
	}
}

func TestSaveWritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	a.now = func() time.Time {
		return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	}
	if err := a.Save(tonePCM(4096), 16000, 1); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "murmur-20260314-150926.flac")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s: %v", path, err)
	}
}

func TestSaveEmptyIsNoOp(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Save(nil, 16000, 1); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("unexpected files: %v", entries)
	}
}
