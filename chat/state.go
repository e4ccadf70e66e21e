package chat

import "strings"

// SessionState is the whole interaction state of a chat session.
// IsLoading and IsRecording are never both true.
type SessionState struct {
	IsLoading   bool
	IsRecording bool
}

// Affordances says which controls currently accept input.
type Affordances struct {
	Send  bool
	Mic   bool
	Input bool
}

// Affordances derives the enabled controls from the state and the current
// input text. Send is narrower than "not loading and input not blank": it is
// also off while recording, so IsLoading can never be set mid-recording.
func (s SessionState) Affordances(input string) Affordances {
	return Affordances{
		Send:  !s.IsLoading && !s.IsRecording && strings.TrimSpace(input) != "",
		Mic:   !s.IsLoading,
		Input: !s.IsLoading,
	}
}

// Icon describes how the microphone control is drawn.
type Icon struct {
	Glyph     string
	Label     string
	Recording bool
}

func MicIcon(isRecording bool) Icon {
	if isRecording {
		return Icon{Glyph: "■", Label: "stop", Recording: true}
	}
	return Icon{Glyph: "🎤", Label: "mic"}
}
