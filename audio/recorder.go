package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"mega/encoder"
)

// DefaultTimeslice is how much audio goes into one buffered chunk.
const DefaultTimeslice = time.Second

var (
	ErrBusy         = errors.New("recorder busy")
	ErrNotRecording = errors.New("not recording")
)

type State int

const (
	StateIdle State = iota
	StateRequesting
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Clip is a finished recording: every buffered chunk joined into one FLAC blob.
type Clip struct {
	Data     []byte
	MIMEType string
	Chunks   int
	RawBytes int
	Duration time.Duration
	Device   string
}

// Recorder owns one capture device at a time and walks it through
// Idle -> Requesting -> Recording -> Stopping -> Idle.
type Recorder struct {
	ctx       Context
	device    *DeviceInfo
	config    CaptureConfig
	timeslice time.Duration

	mu        sync.Mutex
	state     State
	capture   CaptureDevice
	chunks    [][]byte
	pending   []byte
	onFailure func(error)
	reported  bool
}

func NewRecorder(ctx Context, device *DeviceInfo, config CaptureConfig) *Recorder {
	return &Recorder{
		ctx:       ctx,
		device:    device,
		config:    config,
		timeslice: DefaultTimeslice,
	}
}

// SetTimeslice changes the chunk length for the next recording.
func (r *Recorder) SetTimeslice(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.timeslice = d
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// DeviceName names the microphone the next recording will use.
func (r *Recorder) DeviceName() string {
	if r.device != nil {
		return r.device.Name
	}
	return "system default"
}

// Start requests the microphone and begins buffering. Failures are classified
// as ErrPermissionDenied or ErrDeviceUnavailable and leave the recorder idle.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrBusy
	}
	r.state = StateRequesting
	r.chunks = nil
	r.pending = nil
	r.reported = false
	r.mu.Unlock()

	capture, err := r.open()
	if err != nil {
		r.mu.Lock()
		r.state = StateIdle
		r.chunks = nil
		r.pending = nil
		r.mu.Unlock()
		return Classify(err)
	}

	r.mu.Lock()
	r.capture = capture
	r.state = StateRecording
	r.mu.Unlock()
	return nil
}

func (r *Recorder) open() (CaptureDevice, error) {
	capture, err := r.ctx.NewCapture(r.device, r.config)
	if err != nil {
		return nil, err
	}
	capture.SetCallback(r.onData)
	if rep, ok := capture.(ErrorReporter); ok {
		rep.SetErrorCallback(r.onError)
	}
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return nil, err
	}
	return capture, nil
}

func (r *Recorder) onData(data []byte, _ uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRequesting && r.state != StateRecording {
		return
	}
	r.pending = append(r.pending, data...)
	slice := r.sliceBytes()
	for len(r.pending) >= slice {
		chunk := make([]byte, slice)
		copy(chunk, r.pending[:slice])
		r.chunks = append(r.chunks, chunk)
		r.pending = r.pending[slice:]
	}
}

func (r *Recorder) sliceBytes() int {
	n := int(r.timeslice.Seconds() * float64(r.config.BytesPerSecond()))
	n -= n % 2
	if n < 2 {
		n = 2
	}
	return n
}

// SetFailureHandler registers fn to hear, at most once per recording, that the
// device died mid-capture. fn runs on its own goroutine; the recording stays
// open until Stop is called.
func (r *Recorder) SetFailureHandler(fn func(error)) {
	r.mu.Lock()
	r.onFailure = fn
	r.mu.Unlock()
}

func (r *Recorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRequesting && r.state != StateRecording {
		return
	}
	if r.reported || r.onFailure == nil {
		return
	}
	r.reported = true
	go r.onFailure(err)
}

// Stop releases the device and joins the buffered chunks into a Clip.
func (r *Recorder) Stop() (Clip, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return Clip{}, ErrNotRecording
	}
	r.state = StateStopping
	capture := r.capture
	r.mu.Unlock()

	capture.Stop()
	capture.ClearCallback()
	capture.Close()

	r.mu.Lock()
	if len(r.pending) > 0 {
		r.chunks = append(r.chunks, r.pending)
	}
	chunks := r.chunks
	r.chunks = nil
	r.pending = nil
	r.capture = nil
	r.mu.Unlock()

	clip, err := r.assemble(chunks)
	clip.Device = capture.DeviceName()

	r.mu.Lock()
	r.state = StateIdle
	r.mu.Unlock()
	return clip, err
}

func (r *Recorder) assemble(chunks [][]byte) (Clip, error) {
	pcm := bytes.Join(chunks, nil)
	clip := Clip{
		Chunks:   len(chunks),
		RawBytes: len(pcm),
	}
	if bps := r.config.BytesPerSecond(); bps > 0 {
		clip.Duration = time.Duration(float64(len(pcm)) / float64(bps) * float64(time.Second))
	}

	enc, err := encoder.NewFlac(r.config.SampleRate)
	if err != nil {
		return clip, err
	}
	if err := encoder.EncodePCM(enc, pcm); err != nil {
		return clip, err
	}
	if err := enc.Close(); err != nil {
		return clip, fmt.Errorf("finishing flac stream: %w", err)
	}
	clip.Data = enc.Bytes()
	clip.MIMEType = enc.MIMEType()
	return clip, nil
}

// Close discards any recording in progress and releases the device.
func (r *Recorder) Close() {
	if r.State() == StateRecording {
		r.Stop()
	}
}
