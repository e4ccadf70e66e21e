package chat

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Label is the tag printed in front of the timestamp.
func (r Role) Label() string {
	if r == RoleUser {
		return "[USER]"
	}
	return "[AGENT]"
}

// Message is one transcript entry. Text is stored raw and escaped when drawn.
type Message struct {
	ID        string
	Role      Role
	Text      string
	Timestamp string
}

func newMessage(role Role, text string, at time.Time, layout string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: at.Format(layout),
	}
}
