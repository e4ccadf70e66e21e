package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mega/audio"
	"mega/webhook"
)

type replyMsg struct{ reply webhook.Reply }

type sendFailedMsg struct{ err error }

type typeTickMsg struct{}

type recordingStartedMsg struct{ device string }

type recordingFailedMsg struct{ err error }

type recordingStoppedMsg struct {
	clip audio.Clip
	err  error
}

type copiedMsg struct{ err error }

// CaptureFailedMsg reports that the microphone died while recording. It is
// sent into the program from the recorder's failure handler.
type CaptureFailedMsg struct{ Err error }

func send(s webhook.Sender, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := s.Send(context.Background(), text)
		if err != nil {
			return sendFailedMsg{err: err}
		}
		return replyMsg{reply: reply}
	}
}

func typeTick(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return typeTickMsg{}
	})
}

func startRecording(r Recorder) tea.Cmd {
	return func() tea.Msg {
		if r == nil {
			return recordingFailedMsg{err: audio.ErrDeviceUnavailable}
		}
		if err := r.Start(); err != nil {
			return recordingFailedMsg{err: err}
		}
		return recordingStartedMsg{device: r.DeviceName()}
	}
}

func stopRecording(r Recorder) tea.Cmd {
	return func() tea.Msg {
		clip, err := r.Stop()
		return recordingStoppedMsg{clip: clip, err: err}
	}
}

func copyText(copy func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: copy(text)}
	}
}
