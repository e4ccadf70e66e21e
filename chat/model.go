// Package chat is the terminal chat window: a bubbletea model that owns the
// session state, talks to the webhook and the recorder through commands, and
// draws the transcript.
package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"mega/audio"
	"mega/log"
	"mega/webhook"
)

// Recorder is the part of audio.Recorder the chat drives.
type Recorder interface {
	Start() error
	Stop() (audio.Clip, error)
	DeviceName() string
}

type Options struct {
	Sender      webhook.Sender
	Recorder    Recorder
	Locale      string
	TypingDelay time.Duration
	// Copy puts text on the clipboard. Nil disables Ctrl+Y.
	Copy func(string) error
	Now  func() time.Time
}

type Model struct {
	opts    Options
	strings Strings
	keys    KeyMap

	state      SessionState
	requesting bool // microphone asked for, not yet granted
	stopping   bool
	messages   []Message
	writer     *Typewriter
	typing     bool // typing indicator visible
	selected   bool // whole input value selected
	alert      string
	status     string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	width, height int
	ready         bool
}

func New(opts Options) Model {
	if opts.TypingDelay <= 0 {
		opts.TypingDelay = 30 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := Lookup(opts.Locale)

	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = s.Placeholder
	in.Cursor.SetMode(cursor.CursorStatic)
	in.Focus()

	return Model{
		opts:    opts,
		strings: s,
		keys:    DefaultKeyMap(),
		input:   in,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(typingStyle)),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle(m.strings.Title)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.typing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh(false)
		return m, cmd

	case replyMsg:
		return m.receiveReply(msg.reply)

	case sendFailedMsg:
		return m.receiveFailure(msg.err)

	case typeTickMsg:
		return m.typeNext()

	case recordingStartedMsg:
		m.requesting = false
		m.state.IsRecording = true
		m.status = ""
		log.RecordingStarted(msg.device)
		return m, nil

	case recordingFailedMsg:
		m.requesting = false
		m.state.IsRecording = false
		m.alert = fmt.Sprintf(m.strings.MicError, msg.err)
		log.MicError(msg.err)
		return m, nil

	case CaptureFailedMsg:
		if !m.state.IsRecording || m.stopping {
			return m, nil
		}
		log.MicError(msg.Err)
		m.stopping = true
		return m, stopRecording(m.opts.Recorder)

	case recordingStoppedMsg:
		return m.finishRecording(msg.clip, msg.err)

	case copiedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf(m.strings.CopyFailed, msg.err)
			log.Warnf("clipboard: %v", msg.err)
		} else {
			m.status = m.strings.Copied
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// The alert is modal: only dismissal gets through.
	if m.alert != "" {
		if key.Matches(msg, m.keys.Submit, m.keys.Clear) {
			m.alert = ""
			if key.Matches(msg, m.keys.Clear) {
				m.input.Reset()
				m.selected = false
			}
			return m, m.input.Focus()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Clear):
		m.input.Reset()
		m.selected = false
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Submit):
		return m.SubmitText(m.input.Value())
	case key.Matches(msg, m.keys.Mic):
		return m.ToggleRecording()
	case key.Matches(msg, m.keys.Copy):
		return m.copyLastReply()
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height/2)
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height/2)
		return m, nil
	}

	if !m.Affordances().Input {
		return m, nil
	}
	if m.selected {
		m.selected = false
		switch msg.Type {
		case tea.KeyBackspace, tea.KeyDelete:
			m.input.SetValue("")
			return m, nil
		case tea.KeyRunes, tea.KeySpace:
			m.input.SetValue("")
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// SubmitText sends text as a user message. It does nothing for blank text,
// while a reply is pending, or while the microphone is live.
func (m Model) SubmitText(text string) (Model, tea.Cmd) {
	text = strings.TrimSpace(text)
	if text == "" || m.state.IsLoading || m.state.IsRecording || m.requesting || m.stopping {
		return m, nil
	}

	m.state.IsLoading = true
	m.appendMessage(RoleUser, text)
	m.input.Reset()
	m.selected = false
	m.status = ""
	m.typing = true
	m.refresh(true)
	log.MessageSent(utf8.RuneCountInString(text))

	return m, tea.Batch(m.spinner.Tick, send(m.opts.Sender, text))
}

// ToggleRecording starts the microphone when idle and stops it when live.
func (m Model) ToggleRecording() (Model, tea.Cmd) {
	if !m.Affordances().Mic || m.requesting || m.stopping {
		return m, nil
	}
	if m.state.IsRecording {
		m.stopping = true
		return m, stopRecording(m.opts.Recorder)
	}
	m.requesting = true
	m.status = ""
	return m, startRecording(m.opts.Recorder)
}

func (m Model) receiveReply(reply webhook.Reply) (tea.Model, tea.Cmd) {
	m.typing = false
	log.Reply(replyMetrics(reply))

	m.appendMessage(RoleAgent, "")
	m.writer = NewTypewriter(reply.Text)
	if m.writer.Done() {
		return m.finishSend()
	}
	m.refresh(true)
	return m, typeTick(m.opts.TypingDelay)
}

func (m Model) receiveFailure(err error) (tea.Model, tea.Cmd) {
	m.typing = false
	reason := webhook.Reason(err)
	log.SendFailed(reason)
	m.appendMessage(RoleAgent, fmt.Sprintf(m.strings.NetworkError, reason))
	return m.finishSend()
}

func (m Model) typeNext() (tea.Model, tea.Cmd) {
	if m.writer == nil || len(m.messages) == 0 {
		return m, nil
	}
	prefix, _ := m.writer.Next()
	m.messages[len(m.messages)-1].Text = prefix
	if m.writer.Done() {
		return m.finishSend()
	}
	m.refresh(true)
	return m, typeTick(m.opts.TypingDelay)
}

func (m Model) finishSend() (tea.Model, tea.Cmd) {
	m.writer = nil
	m.state.IsLoading = false
	m.refresh(true)
	return m, m.input.Focus()
}

func (m Model) finishRecording(clip audio.Clip, err error) (tea.Model, tea.Cmd) {
	m.stopping = false
	m.state.IsRecording = false
	if err != nil && !errors.Is(err, audio.ErrNotRecording) {
		log.Errorf("finishing recording: %v", err)
	}
	log.RecordingStopped(log.ClipStats{
		Device:   clip.Device,
		Chunks:   clip.Chunks,
		RawKB:    float64(clip.RawBytes) / 1024,
		FlacKB:   float64(len(clip.Data)) / 1024,
		Duration: clip.Duration.Seconds(),
	})

	m.input.SetValue(m.strings.VoicePlaceholder)
	m.input.CursorEnd()
	m.selected = true
	return m, m.input.Focus()
}

func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	if m.opts.Copy == nil {
		return m, nil
	}
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if msg.Role != RoleAgent {
			continue
		}
		if i == len(m.messages)-1 && m.writer != nil {
			continue
		}
		return m, copyText(m.opts.Copy, msg.Text)
	}
	return m, nil
}

func (m *Model) appendMessage(role Role, text string) {
	m.messages = append(m.messages, newMessage(role, text, m.opts.Now(), m.strings.TimeLayout))
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	vh := h - 4
	if vh < 1 {
		vh = 1
	}
	if !m.ready {
		m.viewport = viewport.New(w, vh)
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = vh
	}
	m.input.Width = max(w-8, 1)
	m.refresh(true)
}

// refresh redraws the transcript. follow pins the view to the newest line;
// otherwise it only stays pinned if it already was.
func (m *Model) refresh(follow bool) {
	if !m.ready {
		return
	}
	follow = follow || m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

func replyMetrics(r webhook.Reply) log.ReplyMetrics {
	out := log.ReplyMetrics{
		Chars:      utf8.RuneCountInString(r.Text),
		StatusCode: r.StatusCode,
	}
	if nm := r.Metrics; nm != nil {
		out.DNSMs = ms(nm.DNS)
		out.TLSMs = ms(nm.TLS)
		out.TTFBMs = ms(nm.TTFB)
		out.TotalMs = ms(nm.Total)
		out.ConnReused = nm.ConnReused
		out.TLSProto = nm.TLSProtocol
	}
	return out
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (m Model) State() SessionState { return m.state }

func (m Model) Affordances() Affordances { return m.state.Affordances(m.input.Value()) }

// Messages returns the transcript in order.
func (m Model) Messages() []Message { return m.messages }

func (m Model) Input() string { return m.input.Value() }

func (m Model) InputFocused() bool { return m.input.Focused() }

func (m Model) Selected() bool { return m.selected }

func (m Model) TypingIndicator() bool { return m.typing }

func (m Model) Alert() string { return m.alert }

func (m Model) Status() string { return m.status }
