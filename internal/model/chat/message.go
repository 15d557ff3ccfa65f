package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Kind 描述消息的展示类型。
type Kind string

const (
	KindText     Kind = "text"
	KindExercise Kind = "exercise"
	KindResource Kind = "resource"
)

// Message is one immutable turn of a conversation. IDs are UUIDv7 so that
// lexical order matches generation order.
type Message struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Sender    Sender          `json:"sender"`
	Content   string          `json:"content"`
	Sentiment sentiment.Label `json:"sentiment,omitempty"`
	Kind      Kind            `json:"type,omitempty"`
	CreatedAt time.Time       `json:"timestamp"`
}

// NewMessageID returns a time-ordered identifier for a new message.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}
