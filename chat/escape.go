package chat

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Escape makes untrusted text safe to print: ANSI/OSC sequences are removed
// and stray control characters are shown as U+FFFD. Newlines and tabs survive.
// Markup such as <b> has no meaning in a terminal and is left as literal text.
func Escape(text string) string {
	text = ansi.Strip(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case r == '\t':
			b.WriteString("    ")
		case r == '\r':
		case unicode.IsControl(r):
			b.WriteRune(unicode.ReplacementChar)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
