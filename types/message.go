package types

import (
	"time"
)

// UserSpeaker is the reserved speaker of the seed task message.
const UserSpeaker = "user"

// Message is one turn of a conversation. It is a value type: once appended to
// a History it is never modified.
type Message struct {
	RunID     string    `json:"run_id,omitempty"`
	Sequence  int       `json:"sequence"`
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates an unsequenced message. The sequence number is assigned
// when the message is appended to a History.
func NewMessage(speaker, content string) Message {
	return Message{
		Sequence:  -1,
		Speaker:   speaker,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// IsSeed reports whether the message is the task message that opened the run.
func (m Message) IsSeed() bool {
	return m.Sequence == 0 && m.Speaker == UserSpeaker
}
