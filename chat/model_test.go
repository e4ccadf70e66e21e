package chat

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mega/audio"
	"mega/webhook"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC) }

func newTestModel(t *testing.T, sender webhook.Sender, rec Recorder) Model {
	t.Helper()
	m := New(Options{
		Sender:      sender,
		Recorder:    rec,
		Locale:      "he",
		TypingDelay: time.Millisecond,
		Now:         fixedNow,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	return Settle(m, cmd)
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestSubmitSendsOnce(t *testing.T) {
	fake := webhook.NewFake("שלום לך", nil)
	m := newTestModel(t, fake, nil)
	m = typeText(t, m, "  hello ")

	m, cmd := press(t, m, enter)
	if !m.State().IsLoading {
		t.Fatal("IsLoading should be set while the request is out")
	}
	if !m.TypingIndicator() {
		t.Error("typing indicator should show after the user message")
	}
	if m.Input() != "" {
		t.Errorf("input = %q, want cleared", m.Input())
	}
	msgs := m.Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleUser || msgs[0].Text != "hello" {
		t.Fatalf("messages = %+v, want one trimmed user message", msgs)
	}
	if msgs[0].Timestamp != "14:05:09" {
		t.Errorf("Timestamp = %q", msgs[0].Timestamp)
	}
	if len(fake.Calls()) != 0 {
		t.Error("request issued before the command ran")
	}

	m = run(t, m, cmd)

	if calls := fake.Calls(); len(calls) != 1 || calls[0] != "hello" {
		t.Errorf("calls = %q, want [hello]", calls)
	}
	msgs = m.Messages()
	if len(msgs) != 2 || msgs[1].Role != RoleAgent || msgs[1].Text != "שלום לך" {
		t.Fatalf("messages = %+v", msgs)
	}
	if m.State().IsLoading || m.TypingIndicator() {
		t.Errorf("after reply: state %+v, typing %v", m.State(), m.TypingIndicator())
	}
	if !m.InputFocused() {
		t.Error("input should be focused after the reply")
	}
}

func TestSubmitIgnored(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		loading bool
	}{
		{"empty", "", false},
		{"whitespace", " \t  ", false},
		{"loading", "hello", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := webhook.NewFake("ok", nil)
			m := newTestModel(t, fake, nil)
			if tt.loading {
				m, _ = m.SubmitText("first")
			}
			before := len(m.Messages())

			m, cmd := m.SubmitText(tt.text)
			if cmd != nil {
				t.Error("expected no command")
			}
			if len(m.Messages()) != before {
				t.Errorf("messages grew from %d to %d", before, len(m.Messages()))
			}
			if len(fake.Calls()) != 0 {
				t.Errorf("calls = %q, want none", fake.Calls())
			}
		})
	}
}

func TestReplyHidesIndicatorBeforeTyping(t *testing.T) {
	m := newTestModel(t, webhook.NewFake("", nil), nil)
	m, _ = m.SubmitText("hi")

	next, cmd := m.Update(replyMsg{reply: webhook.Reply{Text: "abc", StatusCode: 200}})
	m = next.(Model)
	if m.TypingIndicator() {
		t.Error("indicator still visible once the reply arrived")
	}
	msgs := m.Messages()
	if last := msgs[len(msgs)-1]; last.Role != RoleAgent || last.Text != "" {
		t.Errorf("placeholder = %+v, want empty agent message", last)
	}
	if !m.State().IsLoading {
		t.Error("still loading until the reply has been typed out")
	}

	// one rune per tick
	var seen []string
	for cmd != nil {
		next, cmd = m.Update(typeTickMsg{})
		m = next.(Model)
		msgs = m.Messages()
		seen = append(seen, msgs[len(msgs)-1].Text)
	}
	if strings.Join(seen, ",") != "a,ab,abc" {
		t.Errorf("typed prefixes = %v", seen)
	}
	if m.State().IsLoading {
		t.Error("IsLoading should clear when typing finishes")
	}
}

func TestEmptyReply(t *testing.T) {
	m := newTestModel(t, webhook.NewFake("", nil), nil)
	m, cmd := m.SubmitText("hi")
	m = run(t, m, cmd)
	if m.State().IsLoading {
		t.Error("IsLoading stuck after an empty reply")
	}
	if n := len(m.Messages()); n != 2 {
		t.Errorf("messages = %d, want 2", n)
	}
}

func TestSendFailure(t *testing.T) {
	fake := webhook.NewFake("", &webhook.StatusError{StatusCode: 500, Status: "500 Internal Server Error"})
	m := newTestModel(t, fake, nil)
	m, cmd := m.SubmitText("hi")
	m = run(t, m, cmd)

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %+v, want user + one error", msgs)
	}
	want := "שגיאה בתקשורת עם הסוכן: HTTP error! status: 500. נסה שוב."
	if msgs[1].Role != RoleAgent || msgs[1].Text != want {
		t.Errorf("error message = %+v, want %q", msgs[1], want)
	}
	if m.State().IsLoading || m.TypingIndicator() {
		t.Error("failure should leave the session idle")
	}
	if !m.InputFocused() {
		t.Error("input should be focused after a failure")
	}
}

func TestEnglishLocale(t *testing.T) {
	fake := webhook.NewFake("", errors.New("connection refused"))
	m := New(Options{Sender: fake, Locale: "en", TypingDelay: time.Millisecond, Now: fixedNow})
	m, cmd := m.SubmitText("hi")
	m = run(t, m, cmd)
	got := m.Messages()[1].Text
	if got != "Error talking to the agent: connection refused. Please try again." {
		t.Errorf("error text = %q", got)
	}
}

func TestRecordingCycle(t *testing.T) {
	pcm := make([]byte, audio.DefaultCaptureConfig().BytesPerSecond())
	rec := audio.NewRecorder(audio.NewFakeContext(pcm, false), nil, audio.DefaultCaptureConfig())
	m := newTestModel(t, webhook.NewFake("ok", nil), rec)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m = run(t, m, cmd)
	if !m.State().IsRecording {
		t.Fatal("mic toggle with permission should start recording")
	}
	if rec.State() != audio.StateRecording {
		t.Errorf("recorder state = %v", rec.State())
	}
	if !m.Affordances().Mic || m.Affordances().Send {
		t.Errorf("affordances while recording = %+v", m.Affordances())
	}

	m, cmd = m.ToggleRecording()
	m = run(t, m, cmd)
	if m.State().IsRecording {
		t.Error("second toggle should stop recording")
	}
	if rec.State() != audio.StateIdle {
		t.Errorf("recorder state = %v, want idle", rec.State())
	}
	if m.Input() != Lookup("he").VoicePlaceholder {
		t.Errorf("input = %q, want voice placeholder", m.Input())
	}
	if !m.InputFocused() || !m.Selected() {
		t.Error("placeholder should be focused and selected")
	}
	if len(m.Messages()) != 0 {
		t.Error("recording must not add messages")
	}

	// typing over the selection replaces it
	m = typeText(t, m, "x")
	if m.Input() != "x" || m.Selected() {
		t.Errorf("input = %q selected = %v, want replaced", m.Input(), m.Selected())
	}
}

func TestRecordingDenied(t *testing.T) {
	ctx := audio.NewFakeContext(nil, false)
	ctx.Deny(errors.New("Permission denied"))
	rec := audio.NewRecorder(ctx, nil, audio.DefaultCaptureConfig())
	m := newTestModel(t, webhook.NewFake("ok", nil), rec)

	m, cmd := m.ToggleRecording()
	m = run(t, m, cmd)
	if m.State().IsRecording {
		t.Error("IsRecording set despite denial")
	}
	if len(m.Messages()) != 0 {
		t.Error("denial must not add messages")
	}
	if !strings.Contains(m.Alert(), "שגיאה בגישה למיקרופון") {
		t.Errorf("alert = %q", m.Alert())
	}

	// typing is blocked until the alert is dismissed
	m = typeText(t, m, "a")
	if m.Input() != "" {
		t.Errorf("input = %q while alert open", m.Input())
	}
	m, _ = press(t, m, enter)
	if m.Alert() != "" {
		t.Error("enter should dismiss the alert")
	}
}

func TestCaptureFailureStops(t *testing.T) {
	rec := audio.NewRecorder(audio.NewFakeContext(nil, false), nil, audio.DefaultCaptureConfig())
	m := newTestModel(t, nil, rec)
	m, cmd := m.ToggleRecording()
	m = run(t, m, cmd)

	next, cmd := m.Update(CaptureFailedMsg{Err: errors.New("device unplugged")})
	m = run(t, next.(Model), cmd)
	if m.State().IsRecording || rec.State() != audio.StateIdle {
		t.Error("capture failure should stop the recording")
	}
	if m.Input() != Lookup("he").VoicePlaceholder {
		t.Errorf("input = %q", m.Input())
	}
}

func TestNoRecorder(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m, cmd := m.ToggleRecording()
	m = run(t, m, cmd)
	if m.Alert() == "" || m.State().IsRecording {
		t.Error("missing recorder should raise the mic alert")
	}
}

func TestMutualExclusion(t *testing.T) {
	rec := audio.NewRecorder(audio.NewFakeContext(nil, false), nil, audio.DefaultCaptureConfig())
	fake := webhook.NewFake("ok", nil)
	m := newTestModel(t, fake, rec)

	// no mic while a request is out
	m, _ = m.SubmitText("hi")
	if _, cmd := m.ToggleRecording(); cmd != nil {
		t.Error("mic toggle accepted while loading")
	}

	// no send while recording
	m = newTestModel(t, fake, rec)
	m, cmd := m.ToggleRecording()
	m = run(t, m, cmd)
	m, cmd = m.SubmitText("hi")
	if cmd != nil || m.State().IsLoading {
		t.Error("submit accepted while recording")
	}
	rec.Close()
}

func TestEscapeClearsInput(t *testing.T) {
	esc := tea.KeyMsg{Type: tea.KeyEsc}

	t.Run("idle", func(t *testing.T) {
		m := newTestModel(t, webhook.NewFake("ok", nil), nil)
		m = typeText(t, m, "draft")
		if m.Input() != "draft" {
			t.Fatalf("input = %q before esc", m.Input())
		}
		m, _ = press(t, m, esc)
		if m.Input() != "" || !m.InputFocused() {
			t.Errorf("after esc: input %q focused %v", m.Input(), m.InputFocused())
		}
	})

	t.Run("recording", func(t *testing.T) {
		rec := audio.NewRecorder(audio.NewFakeContext(nil, false), nil, audio.DefaultCaptureConfig())
		defer rec.Close()
		m := newTestModel(t, webhook.NewFake("ok", nil), rec)
		m, cmd := m.ToggleRecording()
		m = run(t, m, cmd)
		m = typeText(t, m, "note")
		if !m.State().IsRecording || m.Input() != "note" {
			t.Fatalf("recording %v input %q before esc", m.State().IsRecording, m.Input())
		}
		m, _ = press(t, m, esc)
		if m.Input() != "" || !m.InputFocused() {
			t.Errorf("after esc: input %q focused %v", m.Input(), m.InputFocused())
		}
	})

	t.Run("alert open", func(t *testing.T) {
		ctx := audio.NewFakeContext(nil, false)
		ctx.Deny(errors.New("Permission denied"))
		m := newTestModel(t, webhook.NewFake("ok", nil), audio.NewRecorder(ctx, nil, audio.DefaultCaptureConfig()))
		m = typeText(t, m, "draft")
		m, cmd := m.ToggleRecording()
		m = run(t, m, cmd)
		if m.Alert() == "" {
			t.Fatal("expected mic alert")
		}
		m, _ = press(t, m, esc)
		if m.Alert() != "" || m.Input() != "" || !m.InputFocused() {
			t.Errorf("after esc: alert %q input %q focused %v", m.Alert(), m.Input(), m.InputFocused())
		}
	})
}

func TestInputDisabledWhileLoading(t *testing.T) {
	m := newTestModel(t, webhook.NewFake("ok", nil), nil)
	m, _ = m.SubmitText("hi")
	m = typeText(t, m, "abc")
	if m.Input() != "" {
		t.Errorf("input accepted %q while loading", m.Input())
	}
	if a := m.Affordances(); a.Input || a.Mic || a.Send {
		t.Errorf("affordances while loading = %+v", a)
	}
}

func TestCopyLastReply(t *testing.T) {
	var copied []string
	m := New(Options{
		Sender:      webhook.NewFake("the answer", nil),
		TypingDelay: time.Millisecond,
		Copy:        func(s string) error { copied = append(copied, s); return nil },
	})
	m, cmd := m.SubmitText("q")
	m = run(t, m, cmd)

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	m = run(t, m, cmd)
	if len(copied) != 1 || copied[0] != "the answer" {
		t.Errorf("copied = %q", copied)
	}
	if m.Status() != Lookup("he").Copied {
		t.Errorf("status = %q", m.Status())
	}
}

func TestViewEscapesReply(t *testing.T) {
	m := newTestModel(t, webhook.NewFake("<b>hi</b> & \x1b[31mred\x1b[0m", nil), nil)
	m, cmd := m.SubmitText("a < b")
	m = run(t, m, cmd)

	view := m.View()
	for _, want := range []string{"<b>hi</b> & red", "a < b", "[USER]", "[AGENT]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "\x1b[31m") {
		t.Error("reply escape sequence reached the terminal")
	}
}

func TestWelcomeHiddenAfterFirstMessage(t *testing.T) {
	m := newTestModel(t, webhook.NewFake("ok", nil), nil)
	welcome := Lookup("he").Welcome
	if !strings.Contains(m.View(), welcome) {
		t.Error("welcome banner missing on an empty session")
	}
	m, cmd := m.SubmitText("hi")
	m = run(t, m, cmd)
	if strings.Contains(m.View(), welcome) {
		t.Error("welcome banner still shown after the first message")
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := New(Options{})
	if m.View() != "Loading..." {
		t.Errorf("View = %q", m.View())
	}
}
