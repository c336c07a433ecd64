// Package audio abstracts microphone capture. The linux backend talks to
// PulseAudio directly; everywhere else miniaudio (malgo) is used. Frames are
// delivered as little-endian PCM16 through a data callback; stream failures
// (device unplugged, server gone) surface through an error callback so the
// session can fail loudly instead of recording silence.
package audio

import "strings"

const WAVHeaderSize = 44

// DataCallback receives raw PCM16 bytes and the frame count they contain.
type DataCallback func(data []byte, frameCount uint32)

// ErrorCallback is invoked at most once per Start when the stream dies
// underneath us.
type ErrorCallback func(err error)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	SetErrorCallback(cb ErrorCallback)
	ClearCallback()
	DeviceName() string
}

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses whether a device name belongs to a bluetooth headset,
// whose capture quality is usually degraded by the HFP codec.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
