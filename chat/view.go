package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.alert != "" {
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.alertView())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		body,
		m.inputView(),
		helpStyle.Render(m.strings.Help),
	)
}

func (m Model) headerView() string {
	parts := []string{titleStyle.Render(m.strings.Title), m.micView()}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	return strings.Join(parts, "  ")
}

func (m Model) micView() string {
	icon := MicIcon(m.state.IsRecording)
	switch {
	case icon.Recording:
		device := ""
		if m.opts.Recorder != nil {
			device = " (" + m.opts.Recorder.DeviceName() + ")"
		}
		return micRecStyle.Render(fmt.Sprintf("%s %s%s", icon.Glyph, m.strings.Recording, device))
	case !m.Affordances().Mic:
		return disabledStyle.Render(icon.Glyph + " " + icon.Label)
	}
	return micStyle.Render(icon.Glyph + " " + icon.Label)
}

func (m Model) inputView() string {
	aff := m.Affordances()
	var line string
	switch {
	case !aff.Input:
		text := m.input.Value()
		if text == "" {
			text = m.input.Placeholder
		}
		line = disabledStyle.Render(m.input.Prompt + Escape(text))
	case m.selected:
		line = m.input.Prompt + selectedStyle.Render(Escape(m.input.Value()))
	default:
		line = m.input.View()
	}

	send := disabledStyle.Render("⏎")
	if aff.Send {
		send = statusStyle.Render("⏎")
	}
	return inputBoxStyle.Width(m.width).Render(line + "  " + send)
}

func (m Model) alertView() string {
	text := strings.Join(wrapText(Escape(m.alert), max(m.width/2, 20)), "\n")
	return alertStyle.Render(text + "\n\n" + helpStyle.Render(m.strings.Dismiss))
}

func (m Model) renderTranscript() string {
	width := max(m.viewport.Width-2, 1)
	var blocks []string
	if len(m.messages) == 0 {
		blocks = append(blocks, welcomeStyle.Render(strings.Join(wrapText(m.strings.Welcome, width), "\n")))
	}
	for _, msg := range m.messages {
		blocks = append(blocks, renderMessage(msg, width))
	}
	if m.typing {
		blocks = append(blocks, m.spinner.View()+" "+typingStyle.Render(m.strings.Typing))
	}
	return strings.Join(blocks, "\n\n")
}

func renderMessage(msg Message, width int) string {
	label, text := agentLabelStyle, agentTextStyle
	if msg.Role == RoleUser {
		label, text = userLabelStyle, userTextStyle
	}
	header := label.Render(msg.Role.Label()) + " " + timeStyle.Render(msg.Timestamp)
	lines := wrapText(Escape(msg.Text), width)
	return header + "\n" + text.Render(strings.Join(lines, "\n"))
}

// wrapText breaks text into lines no wider than width terminal cells,
// preferring spaces. Wide runes (CJK, emoji) count as two cells.
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapLine(para, width)...)
	}
	return lines
}

func wrapLine(line string, width int) []string {
	var out []string
	for runewidth.StringWidth(line) > width {
		cut := cutPoint(line, width)
		out = append(out, strings.TrimRight(line[:cut], " "))
		line = strings.TrimLeft(line[cut:], " ")
	}
	return append(out, line)
}

// cutPoint returns the byte offset at which to break line so the head fits
// in width cells. It is always > 0.
func cutPoint(line string, width int) int {
	w, end, lastSpace := 0, 0, -1
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			break
		}
		w += rw
		if r == ' ' {
			lastSpace = i
		}
		i += size
		end = i
	}
	if lastSpace > 0 {
		return lastSpace
	}
	if end == 0 {
		_, size := utf8.DecodeRuneInString(line)
		return size
	}
	return end
}
