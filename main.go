package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"mega/audio"
	"mega/chat"
	"mega/clipboard"
	"mega/config"
	"mega/doctor"
	"mega/log"
	"mega/shutdown"
	"mega/webhook"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configFlag := flag.String("config", "", "config file (default: ~/.config/mega/config.toml)")
	webhookFlag := flag.String("webhook", "", "agent webhook URL")
	localeFlag := flag.String("locale", "", "UI language: he or en")
	deviceFlag := flag.String("device", "", "use named microphone device")
	setupFlag := flag.Bool("setup", false, "select microphone device (otherwise uses system default)")
	timeoutFlag := flag.Duration("timeout", 0, "webhook request timeout (e.g. 90s)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	wavFlag := flag.String("wav", "", "feed the microphone from a 16-bit mono WAV file")
	doctorFlag := flag.Bool("doctor", false, "run system diagnostics and exit")
	testFlag := flag.Bool("test", false, "test mode (headless, stdin-driven)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("mega %s\n", version)
		return 0
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath, _ = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *webhookFlag != "" {
		cfg.WebhookURL = *webhookFlag
	}
	if *localeFlag != "" {
		cfg.Locale = *localeFlag
	}
	if *deviceFlag != "" {
		cfg.Device = *deviceFlag
	}
	if *timeoutFlag != 0 {
		cfg.Timeout.Duration = *timeoutFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	actx := openAudio(*wavFlag, *testFlag)
	defer actx.Close()

	device := resolveDevice(actx, cfg.Device, *setupFlag)

	if *doctorFlag {
		return doctor.Run(doctor.Options{
			WebhookURL: cfg.WebhookURL,
			Timeout:    cfg.Timeout.Duration,
			Audio:      actx,
			Device:     device,
		})
	}

	log.SessionStart(uuid.NewString(), cfg.WebhookURL, cfg.Locale)

	rec := audio.NewRecorder(actx, device, audio.DefaultCaptureConfig())
	defer rec.Close()
	sender := webhook.New(cfg.WebhookURL, cfg.Timeout.Duration)

	if *testFlag {
		n := runHeadless(chat.Options{
			Sender:      sender,
			Recorder:    rec,
			Locale:      cfg.Locale,
			TypingDelay: time.Millisecond,
		}, os.Stdin, os.Stdout)
		log.SessionEnd(n)
		return 0
	}

	p := tea.NewProgram(chat.New(chat.Options{
		Sender:      sender,
		Recorder:    rec,
		Locale:      cfg.Locale,
		TypingDelay: cfg.TypingDelay.Duration,
		Copy:        clipboard.Copy,
	}), tea.WithAltScreen())

	rec.SetFailureHandler(func(err error) {
		p.Send(chat.CaptureFailedMsg{Err: err})
	})
	stop := shutdown.Watch(func(sig os.Signal) {
		log.Info("signal: " + sig.String())
		p.Quit()
	})
	defer stop()

	final, err := p.Run()
	if err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if m, ok := final.(chat.Model); ok {
		log.SessionEnd(len(m.Messages()))
	}
	return 0
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// openAudio never fails: without a usable backend every capture request
// reports ErrDeviceUnavailable and the chat shows the mic alert.
func openAudio(wavPath string, headless bool) audio.Context {
	if wavPath != "" {
		ctx, err := audio.NewFakeContextFromWAV(wavPath, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			return audio.Unavailable(err)
		}
		return ctx
	}
	if headless {
		return audio.NewFakeContext(nil, false)
	}
	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		return audio.Unavailable(err)
	}
	return ctx
}

func resolveDevice(actx audio.Context, name string, setup bool) *audio.DeviceInfo {
	if setup {
		dev, err := audio.SelectDevice(actx, name)
		if err == nil {
			return dev
		}
		if !errors.Is(err, audio.ErrCanceled) {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
		}
	}
	dev, err := audio.FindDevice(actx, name)
	if err != nil {
		log.Warnf("device %q: %v", name, err)
		fmt.Printf("Warning: %v, falling back to default device\n", err)
		return nil
	}
	if dev != nil && audio.IsBluetooth(dev.Name) {
		log.Warn("bluetooth microphone selected: " + dev.Name)
	}
	return dev
}
