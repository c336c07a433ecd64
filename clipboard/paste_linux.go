//go:build linux

package clipboard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

// from linux/uinput.h and linux/input-event-codes.h
const (
	uiSetEvbit  = 0x40045564 // UI_SET_EVBIT
	uiSetKeybit = 0x40045565 // UI_SET_KEYBIT
	uiDevCreate = 0x5501     // UI_DEV_CREATE

	evSyn = 0x00
	evKey = 0x01

	busUSB = 0x03
)

const (
	keyLeftCtrl  = 29
	keyLeftShift = 42
	keyV         = 47
)

const deviceName = "murmur-kbd"

// chordGap paces modifier edges so compositors register the state change
// before the next key event arrives.
const chordGap = 5 * time.Millisecond

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FfEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// kbd is the process-wide synthetic keyboard backed by /dev/uinput, shared by
// the paste chord and per-character typing.
type kbd struct {
	f *os.File
}

var (
	device     *kbd
	deviceOnce sync.Once
	deviceErr  error
)

func Init() error {
	deviceOnce.Do(func() {
		device, deviceErr = newKbd()
	})
	return deviceErr
}

func uinputPath() (string, error) {
	for _, p := range []string{"/dev/uinput", "/dev/input/uinput"} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("uinput device not found, try: sudo modprobe uinput")
}

func newKbd() (*kbd, error) {
	path, err := uinputPath()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
	if err != nil {
		return nil, err
	}

	ioctl := func(req, val uintptr) {
		if err != nil {
			return
		}
		if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), req, val); errno != 0 {
			err = errno
		}
	}

	ioctl(uiSetEvbit, evKey)
	ioctl(uiSetEvbit, evSyn)
	// register every standard key so udev classifies the device as a keyboard
	for code := uintptr(0); code < 256; code++ {
		ioctl(uiSetKeybit, code)
	}
	if err == nil {
		dev := uinputUserDev{
			ID: inputID{Bustype: busUSB, Vendor: 0x1234, Product: 0x5678, Version: 1},
		}
		copy(dev.Name[:], deviceName)
		err = binary.Write(f, binary.LittleEndian, &dev)
	}
	ioctl(uiDevCreate, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	// give the compositor time to pick up the new input device
	time.Sleep(200 * time.Millisecond)
	return &kbd{f: f}, nil
}

func (k *kbd) emit(typ, code uint16, value int32) error {
	return binary.Write(k.f, binary.LittleEndian, &inputEvent{Type: typ, Code: code, Value: value})
}

// key sends one press (1) or release (0) edge followed by a sync report.
func (k *kbd) key(code uint16, value int32) error {
	if err := k.emit(evKey, code, value); err != nil {
		return err
	}
	return k.emit(evSyn, 0, 0)
}

func (k *kbd) tap(code uint16) error {
	if err := k.key(code, 1); err != nil {
		return err
	}
	return k.key(code, 0)
}

// chord taps code while holding mod.
func (k *kbd) chord(mod, code uint16) error {
	if err := k.key(mod, 1); err != nil {
		return err
	}
	time.Sleep(chordGap)
	if err := k.key(code, 1); err != nil {
		return err
	}
	time.Sleep(chordGap)
	if err := k.key(code, 0); err != nil {
		return err
	}
	time.Sleep(chordGap)
	return k.key(mod, 0)
}

// Paste sends Ctrl+V through the synthetic keyboard.
func Paste() error {
	if err := Init(); err != nil {
		return err
	}
	return device.chord(keyLeftCtrl, keyV)
}

func keyTap(code uint16, shift bool) error {
	if !shift {
		return device.tap(code)
	}
	if err := device.key(keyLeftShift, 1); err != nil {
		return err
	}
	if err := device.tap(code); err != nil {
		return err
	}
	return device.key(keyLeftShift, 0)
}

// findEvdev locates the /dev/input/eventN node backing the synthetic keyboard.
func findEvdev() (string, error) {
	entries, err := os.ReadDir("/sys/class/input")
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		data, err := os.ReadFile(filepath.Join("/sys/class/input", e.Name(), "device", "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(data)) == deviceName {
			return filepath.Join("/dev/input", e.Name()), nil
		}
	}
	return "", errors.New(deviceName + " evdev device not found")
}

// Verify creates the uinput device, sends a Ctrl+V keystroke, and reads it
// back from the kernel input layer to confirm delivery.
func Verify() (string, error) {
	if err := Init(); err != nil {
		return "", fmt.Errorf("uinput init: %w", err)
	}

	evdevPath, err := findEvdev()
	if err != nil {
		return "", err
	}
	evdev, err := os.Open(evdevPath)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", evdevPath, err)
	}
	defer evdev.Close()

	if err := Paste(); err != nil {
		return "", fmt.Errorf("paste send: %w", err)
	}

	const eventSize = 24 // struct input_event on 64-bit
	seen := make(chan map[uint16]bool, 1)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, eventSize*32)
		n, err := evdev.Read(buf)
		if err != nil {
			readErr <- err
			return
		}
		codes := make(map[uint16]bool)
		for i := 0; i+eventSize <= n; i += eventSize {
			if binary.LittleEndian.Uint16(buf[i+16:]) == evKey {
				codes[binary.LittleEndian.Uint16(buf[i+18:])] = true
			}
		}
		seen <- codes
	}()

	select {
	case codes := <-seen:
		if !codes[keyLeftCtrl] || !codes[keyV] {
			return "", fmt.Errorf("missing events (ctrl=%v, v=%v)", codes[keyLeftCtrl], codes[keyV])
		}
		return fmt.Sprintf("Ctrl+V keystroke verified via %s", evdevPath), nil
	case err := <-readErr:
		return "", fmt.Errorf("reading events: %w", err)
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("timed out waiting for keystroke events")
	}
}
