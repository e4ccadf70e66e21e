package audio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{errors.New("Permission denied"), ErrPermissionDenied},
		{errors.New("connection refused: access not allowed"), ErrPermissionDenied},
		{errors.New("pulse: no such entity"), ErrDeviceUnavailable},
		{errors.New("device busy"), ErrDeviceUnavailable},
		{errors.New("cannot access device hw:1,0"), ErrDeviceUnavailable},
		{errors.New("Access denied"), ErrPermissionDenied},
		{ErrPermissionDenied, ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := Classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify(%q) = %v, want %v", tt.err, got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("Classify(%q) dropped the original error", tt.err)
			}
		})
	}
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestWatchStreamReportsOnce(t *testing.T) {
	stop := make(chan struct{})
	dead := errors.New("server lost")
	reports := make(chan error, 2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchStream(stop, time.Millisecond, func() error { return dead }, func(err error) { reports <- err })
	}()

	select {
	case err := <-reports:
		if !errors.Is(err, dead) {
			t.Errorf("reported %v, want %v", err, dead)
		}
	case <-time.After(time.Second):
		t.Fatal("dead stream was never reported")
	}

	// the watcher keeps waiting for stop after reporting
	select {
	case <-done:
		t.Fatal("watchStream returned before stop")
	case <-time.After(20 * time.Millisecond):
	}
	close(stop)
	<-done
	if len(reports) != 0 {
		t.Errorf("got %d extra reports", len(reports))
	}
}

func TestWatchStreamHealthy(t *testing.T) {
	stop := make(chan struct{})
	done := make(chan struct{})
	reported := false
	go func() {
		defer close(done)
		watchStream(stop, time.Millisecond, func() error { return nil }, func(error) { reported = true })
	}()
	time.Sleep(20 * time.Millisecond)
	close(stop)
	<-done
	if reported {
		t.Error("healthy stream was reported as failed")
	}
}

func TestWatchStreamStopRequested(t *testing.T) {
	stop := make(chan struct{})
	close(stop)
	reported := false
	watchStream(stop, time.Millisecond, func() error { return ErrStreamStopped }, func(error) { reported = true })
	if reported {
		t.Error("a requested stop must not be reported")
	}
}

func TestIsBluetooth(t *testing.T) {
	for name, want := range map[string]bool{
		"AirPods Pro":                 true,
		"bluez_input.00_1A_7D (BT)":   true,
		"Built-in Microphone":         false,
		"alsa_input.pci-0000_00_1f.3": false,
	} {
		if got := IsBluetooth(name); got != want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFindDevice(t *testing.T) {
	ctx := NewFakeContext(nil, false)

	dev, err := FindDevice(ctx, "")
	if err != nil || dev != nil {
		t.Errorf("FindDevice(\"\") = %v, %v; want nil, nil", dev, err)
	}
	dev, err = FindDevice(ctx, "fake")
	if err != nil || dev == nil || dev.ID != "fake" {
		t.Errorf("FindDevice(fake) = %v, %v", dev, err)
	}
	if _, err := FindDevice(ctx, "missing"); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("FindDevice(missing) = %v, want ErrDeviceUnavailable", err)
	}
}

func TestUnavailable(t *testing.T) {
	ctx := Unavailable(errors.New("pulse: connection refused"))
	if _, err := ctx.NewCapture(nil, DefaultCaptureConfig()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("NewCapture = %v, want ErrDeviceUnavailable", err)
	}
}

func TestDefaultCaptureConfig(t *testing.T) {
	c := DefaultCaptureConfig()
	if c.SampleRate != 44100 || !c.EchoCancellation || !c.NoiseSuppression {
		t.Errorf("DefaultCaptureConfig() = %+v", c)
	}
	if c.BytesPerSecond() != 88200 {
		t.Errorf("BytesPerSecond = %d, want 88200", c.BytesPerSecond())
	}
}

type keyReader struct{ keys [][]byte }

func (k *keyReader) Read(p []byte) (int, error) {
	if len(k.keys) == 0 {
		return 0, errors.New("out of keys")
	}
	n := copy(p, k.keys[0])
	k.keys = k.keys[1:]
	return n, nil
}

func TestPickDevice(t *testing.T) {
	devices := []DeviceInfo{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	in := &keyReader{keys: [][]byte{{0x1b, '[', 'B'}, []byte("j"), []byte("k"), []byte("\r")}}
	idx, err := pickDevice(in, &bytes.Buffer{}, devices, "")
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Errorf("picked %d, want 1", idx)
	}

	in = &keyReader{keys: [][]byte{[]byte("\r")}}
	if idx, _ := pickDevice(in, &bytes.Buffer{}, devices, "c"); idx != 2 {
		t.Errorf("current device not preselected, picked %d", idx)
	}

	in = &keyReader{keys: [][]byte{[]byte("q")}}
	if _, err := pickDevice(in, &bytes.Buffer{}, devices, ""); !errors.Is(err, ErrCanceled) {
		t.Errorf("q = %v, want ErrCanceled", err)
	}
}

func TestNewFakeContextFromWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	data := append(make([]byte, WAVHeaderSize), 1, 0, 2, 0)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	ctx, err := NewFakeContextFromWAV(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(ctx.pcm) != 4 {
		t.Errorf("pcm = %d bytes, want 4", len(ctx.pcm))
	}

	if err := os.WriteFile(path, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFakeContextFromWAV(path, false); err == nil {
		t.Error("expected error for truncated WAV")
	}
}
