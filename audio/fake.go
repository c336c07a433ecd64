package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// LoadWAV returns the PCM payload of a WAV file, assuming the canonical
// 44-byte header produced by this codebase and most tools.
func LoadWAV(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < WAVHeaderSize {
		return nil, fmt.Errorf("%s: too short to be a WAV file", path)
	}
	return data[WAVHeaderSize:], nil
}

// FakeContext produces FakeCapture devices fed from an in-memory PCM buffer.
// Used by package tests and the headless -test mode.
type FakeContext struct {
	pcm []byte

	mu          sync.Mutex
	failAcquire error
	captures    []*FakeCapture
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

// FailNextAcquire makes the next NewCapture call return err.
func (f *FakeContext) FailNextAcquire(err error) {
	f.mu.Lock()
	f.failAcquire = err
	f.mu.Unlock()
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAcquire != nil {
		err := f.failAcquire
		f.failAcquire = nil
		return nil, err
	}
	c := &FakeCapture{pcm: f.pcm}
	f.captures = append(f.captures, c)
	return c, nil
}

// LastCapture returns the most recently created capture device.
func (f *FakeContext) LastCapture() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.captures) == 0 {
		return nil
	}
	return f.captures[len(f.captures)-1]
}

// OpenCaptures counts capture devices started but not yet stopped; tests use
// it to prove no handle leaks across failed sessions.
func (f *FakeContext) OpenCaptures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.captures {
		if c.running() {
			n++
		}
	}
	return n
}

func (f *FakeContext) Close() {}

type FakeCapture struct {
	pcm []byte

	mu       sync.Mutex
	cb       DataCallback
	errCb    ErrorCallback
	stopCh   chan struct{}
	feedDone chan struct{}
	started  bool
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) SetErrorCallback(cb ErrorCallback) {
	f.mu.Lock()
	f.errCb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.errCb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// Start delivers the whole PCM fixture synchronously, then keeps feeding
// silence from a goroutine until Stop. Synchronous delivery keeps tests
// deterministic: by the time Start returns, the buffer holds the fixture.
func (f *FakeCapture) Start() error {
	f.mu.Lock()
	cb := f.cb
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	f.started = true
	f.mu.Unlock()

	chunkBytes := fakeFrameSize * fakeBytesPerFrame
	if cb != nil {
		for pos := 0; pos < len(f.pcm); {
			end := min(pos+chunkBytes, len(f.pcm))
			chunk := make([]byte, end-pos)
			copy(chunk, f.pcm[pos:end])
			cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
			pos = end
		}
	}

	go func() {
		defer close(f.feedDone)
		silence := make([]byte, chunkBytes)
		for {
			select {
			case <-f.stopCh:
				return
			case <-time.After(time.Millisecond):
			}
			f.mu.Lock()
			cb := f.cb
			f.mu.Unlock()
			if cb != nil {
				cb(silence, fakeFrameSize)
			}
		}
	}()

	return nil
}

// Feed pushes extra PCM through the data callback, as if the microphone
// delivered it.
func (f *FakeCapture) Feed(data []byte) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(data, uint32(len(data)/fakeBytesPerFrame))
	}
}

// SimulateLoss reports a device failure through the error callback, like a
// microphone being unplugged mid-recording.
func (f *FakeCapture) SimulateLoss() {
	f.mu.Lock()
	cb := f.errCb
	f.mu.Unlock()
	if cb != nil {
		cb(errors.New("simulated device loss"))
	}
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stopCh, feedDone := f.stopCh, f.feedDone
	f.started = false
	f.mu.Unlock()
	if stopCh == nil {
		return
	}
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	<-feedDone
}

func (f *FakeCapture) Close() {
	f.Stop()
}
