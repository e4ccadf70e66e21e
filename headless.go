package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mega/chat"
)

// runHeadless drives a chat session from line commands instead of a terminal:
//
//	SEND <text>   submit text and wait for the reply
//	RECORD        dismiss any open alert, then toggle the microphone
//	SLEEP <ms>
//	QUIT
//
// Every new transcript entry is printed as "<label> <text>". It returns the
// number of messages in the session.
func runHeadless(opts chat.Options, in io.Reader, out io.Writer) int {
	m := chat.New(opts)
	seen := 0
	flush := func() {
		msgs := m.Messages()
		for _, msg := range msgs[seen:] {
			fmt.Fprintf(out, "%s %s\n", msg.Role.Label(), chat.Escape(msg.Text))
		}
		seen = len(msgs)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch cmd {
		case "SEND":
			next, c := m.SubmitText(arg)
			m = chat.Settle(next, c)
			flush()
		case "RECORD":
			if m.Alert() != "" {
				next, c := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
				m = chat.Settle(next.(chat.Model), c)
			}
			next, c := m.ToggleRecording()
			m = chat.Settle(next, c)
			switch {
			case m.Alert() != "":
				fmt.Fprintf(out, "ALERT %s\n", m.Alert())
			case m.State().IsRecording:
				fmt.Fprintln(out, "RECORDING")
			default:
				fmt.Fprintf(out, "INPUT %s\n", m.Input())
			}
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			return len(m.Messages())
		}
	}
	return len(m.Messages())
}
