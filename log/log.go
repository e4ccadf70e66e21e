package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const FileName = "diagnostics_log.txt"

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

type ReplyMetrics struct {
	Chars      int
	StatusCode int
	DNSMs      float64
	TLSMs      float64
	TTFBMs     float64
	TotalMs    float64
	ConnReused bool
	TLSProto   string
}

type ClipStats struct {
	Device   string
	Chunks   int
	RawKB    float64
	FlacKB   float64
	Duration float64
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: MEGA_LOG_PATH environment variable
	if envPath := os.Getenv("MEGA_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(session, webhookURL, locale string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", session).
		Str("webhook", webhookURL).
		Str("locale", locale).
		Msg("session_start")
}

func SessionEnd(messages int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("messages", messages).
		Msg("session_end")
}

// MessageSent records the size of an outgoing message, never its text.
func MessageSent(chars int) {
	if !logReady {
		return
	}
	diagLog.Info().Int("chars", chars).Msg("message_sent")
}

func Reply(m ReplyMetrics) {
	if !logReady {
		return
	}

	connStatus := "new"
	if m.ConnReused {
		connStatus = "reused"
	}

	ev := diagLog.Info().
		Int("status", m.StatusCode).
		Int("chars", m.Chars).
		Str("conn", connStatus)
	if m.TLSProto != "" {
		ev = ev.Str("tls_proto", m.TLSProto)
	}
	ev.Float64("dns_ms", m.DNSMs).
		Float64("tls_ms", m.TLSMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalMs).
		Msg("reply")
}

func SendFailed(reason string) {
	if !logReady {
		return
	}
	diagLog.Error().Str("reason", reason).Msg("send_failed")
}

func RecordingStarted(device string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("device", device).Msg("recording_start")
}

func RecordingStopped(s ClipStats) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("device", s.Device).
		Int("chunks", s.Chunks).
		Float64("raw_kb", s.RawKB).
		Float64("flac_kb", s.FlacKB).
		Float64("audio_s", s.Duration).
		Msg("recording_stop")
}

func MicError(err error) {
	if !logReady {
		return
	}
	diagLog.Error().Err(err).Msg("mic_error")
}
