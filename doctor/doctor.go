// Package doctor runs the interactive -doctor checks: webhook reachability,
// microphone capture and clipboard access.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"mega/audio"
	"mega/clipboard"
	"mega/shutdown"
	"mega/webhook"
)

// RecordFor is how long the microphone check listens.
const RecordFor = 3 * time.Second

type Options struct {
	WebhookURL string
	Timeout    time.Duration
	Audio      audio.Context
	Device     *audio.DeviceInfo

	// Clipboard checks the system clipboard. Nil uses clipboard.RoundTrip.
	Clipboard func(probe string) error

	In  io.Reader
	Out io.Writer
}

type check struct {
	name string
	run  func(*runner) bool
}

var checks = []check{
	{"Webhook", (*runner).checkWebhook},
	{"Microphone", (*runner).checkMic},
	{"Clipboard", (*runner).checkClipboard},
}

type runner struct {
	opts Options
	in   *bufio.Reader
	out  io.Writer
}

// Run executes every check and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	resetTerminal()
	stop := shutdown.Watch(func(os.Signal) {
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		os.Exit(1)
	})
	defer stop()

	return run(opts)
}

func run(opts Options) int {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.RoundTrip
	}
	r := &runner{opts: opts, in: bufio.NewReader(opts.In), out: opts.Out}

	r.printf("mega doctor - interactive system diagnostics\n")
	r.printf("============================================\n")

	allPass := true
	for i, c := range checks {
		r.printf("\n[%d/%d] %s\n", i+1, len(checks), c.name)
		if !c.run(r) {
			allPass = false
		}
	}

	r.printf("\n")
	if !allPass {
		r.printf("Some checks failed. See details above.\n")
		return 1
	}
	r.printf("All checks passed!\n")
	return 0
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *runner) ask(prompt string) string {
	r.printf("%s", prompt)
	line, _ := r.in.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(line))
}

func (r *runner) checkWebhook() bool {
	client := webhook.New(r.opts.WebhookURL, r.opts.Timeout)
	r.printf("  %s\n", client.URL())

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
	defer cancel()
	rtt, status, err := client.Ping(ctx)
	if err != nil {
		r.printf("  FAIL: %s\n", webhook.Reason(err))
		return false
	}
	r.printf("  PASS: reachable (HTTP %d in %dms)\n", status, rtt.Milliseconds())

	if a := r.ask("Send a test message to the agent? [y/N]: "); a != "y" && a != "yes" {
		return true
	}
	reply, err := client.Send(ctx, "mega doctor test message")
	if err != nil {
		r.printf("  FAIL: %s\n", webhook.Reason(err))
		return false
	}
	r.printf("  PASS: agent replied with %d characters\n", len([]rune(reply.Text)))
	return true
}

func (r *runner) checkMic() bool {
	if r.opts.Audio == nil {
		r.printf("  FAIL: audio is not available\n")
		return false
	}
	rec := audio.NewRecorder(r.opts.Audio, r.opts.Device, audio.DefaultCaptureConfig())
	r.printf("  device: %s\n", rec.DeviceName())
	r.ask("Press Enter and speak for 3 seconds...")

	if err := rec.Start(); err != nil {
		r.printf("  FAIL: %v\n", err)
		return false
	}
	r.printf("  Recording")
	for range int(RecordFor / (500 * time.Millisecond)) {
		time.Sleep(500 * time.Millisecond)
		r.printf(".")
	}
	r.printf(" done\n")

	clip, err := rec.Stop()
	if err != nil {
		r.printf("  FAIL: %v\n", err)
		return false
	}
	if clip.RawBytes == 0 {
		r.printf("  FAIL: no audio captured from %s\n", clip.Device)
		return false
	}
	r.printf("  PASS: %.1fs in %d chunks, %.1f KB raw -> %.1f KB %s\n",
		clip.Duration.Seconds(), clip.Chunks,
		float64(clip.RawBytes)/1024, float64(len(clip.Data))/1024, clip.MIMEType)
	if audio.IsBluetooth(clip.Device) {
		r.printf("  Warning: bluetooth microphones switch the headset to low quality audio\n")
	}
	return true
}

func (r *runner) checkClipboard() bool {
	if err := r.opts.Clipboard("mega-doctor-test"); err != nil {
		r.printf("  FAIL: %v\n", err)
		return false
	}
	r.printf("  PASS: copy and read back work, previous contents restored\n")
	return true
}
