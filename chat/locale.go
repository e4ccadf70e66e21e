package chat

// Strings holds every user-facing text of the chat.
type Strings struct {
	Title            string
	Welcome          string
	Placeholder      string
	VoicePlaceholder string
	Typing           string
	Recording        string
	NetworkError     string // %s is the failure reason
	MicError         string // %s is the device error
	Dismiss          string
	Copied           string
	CopyFailed       string
	Help             string
	TimeLayout       string
}

var locales = map[string]Strings{
	"he": {
		Title:            "Mega Agent",
		Welcome:          "שלום! כתבו הודעה או הקליטו הודעה קולית כדי להתחיל.",
		Placeholder:      "הקלד הודעה...",
		VoicePlaceholder: "🎤 הודעה קולית נקלטה - עבד את הטקסט והקלד כאן",
		Typing:           "הסוכן מקליד...",
		Recording:        "מקליט",
		NetworkError:     "שגיאה בתקשורת עם הסוכן: %s. נסה שוב.",
		MicError:         "שגיאה בגישה למיקרופון: %s",
		Dismiss:          "Enter / Esc לסגירה",
		Copied:           "התשובה האחרונה הועתקה",
		CopyFailed:       "ההעתקה נכשלה: %s",
		Help:             "Enter שליחה • Esc ניקוי • Ctrl+R מיקרופון • Ctrl+Y העתקה • Ctrl+C יציאה",
		TimeLayout:       "15:04:05",
	},
	"en": {
		Title:            "Mega Agent",
		Welcome:          "Hi! Type a message or record a voice note to get started.",
		Placeholder:      "Type a message...",
		VoicePlaceholder: "🎤 Voice message captured - edit the text and type here",
		Typing:           "Agent is typing...",
		Recording:        "recording",
		NetworkError:     "Error talking to the agent: %s. Please try again.",
		MicError:         "Could not access the microphone: %s",
		Dismiss:          "Enter / Esc to dismiss",
		Copied:           "Last reply copied",
		CopyFailed:       "Copy failed: %s",
		Help:             "Enter send • Esc clear • Ctrl+R mic • Ctrl+Y copy • Ctrl+C quit",
		TimeLayout:       "15:04:05",
	},
}

// Lookup returns the strings for locale, falling back to Hebrew.
func Lookup(locale string) Strings {
	if s, ok := locales[locale]; ok {
		return s
	}
	return locales["he"]
}
