package audio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mega/encoder"
)

const WAVHeaderSize = 44

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrStreamStopped     = errors.New("capture stream stopped")
)

var deniedMarkers = []string{"denied", "permission", "not allowed"}

// Classify maps a platform capture error onto ErrPermissionDenied or ErrDeviceUnavailable.
// The original error stays in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		return err
	}
	lower := strings.ToLower(err.Error())
	for _, m := range deniedMarkers {
		if strings.Contains(lower, m) {
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
}

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"bluetooth", " bt ", " bt)", " bt]", "bluez",
}

// IsBluetooth guesses from the device name whether the microphone is a headset
// on a bluetooth link.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate       uint32
	Channels         uint32
	EchoCancellation bool
	NoiseSuppression bool
}

// DefaultCaptureConfig is what a voice message is recorded with.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:       encoder.SampleRate,
		Channels:         encoder.Channels,
		EchoCancellation: true,
		NoiseSuppression: true,
	}
}

// BytesPerSecond is the size of one second of 16-bit PCM in this configuration.
func (c CaptureConfig) BytesPerSecond() int {
	ch := c.Channels
	if ch == 0 {
		ch = 1
	}
	return int(c.SampleRate) * int(ch) * encoder.BitsPerSample / 8
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
	ClearCallback()
	DeviceName() string
}

// ErrorReporter is implemented by capture devices that can fail while running.
type ErrorReporter interface {
	SetErrorCallback(fn func(error))
}

// watchStream polls check every interval until stop is closed and hands the
// first error it returns to report. report runs at most once.
func watchStream(stop <-chan struct{}, interval time.Duration, check func() error, report func(error)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		err := check()
		if err == nil {
			continue
		}
		select {
		case <-stop:
			return
		default:
		}
		report(err)
		<-stop
		return
	}
}

// FindDevice returns the device with the given name. An empty name selects the
// system default and yields nil.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no device named %q", ErrDeviceUnavailable, name)
}

type unavailableContext struct {
	err error
}

// Unavailable returns a Context whose every capture request fails with err.
// It stands in when the audio backend could not be reached at startup.
func Unavailable(err error) Context {
	return unavailableContext{err: Classify(err)}
}

func (u unavailableContext) Devices() ([]DeviceInfo, error) { return nil, u.err }
func (u unavailableContext) Close()                         {}

func (u unavailableContext) NewCapture(*DeviceInfo, CaptureConfig) (CaptureDevice, error) {
	return nil, u.err
}
