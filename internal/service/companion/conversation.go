package companion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mindful/backend/internal/model/chat"
)

// MaxMessageLength caps a user message, in characters, on every transport.
const MaxMessageLength = 4000

var (
	ErrEmptyMessage   = errors.New("message content is required")
	ErrMessageTooLong = fmt.Errorf("message must be at most %d characters", MaxMessageLength)
	ErrTurnInProgress = errors.New("a reply is already being generated for this session")
)

// CheckLength validates text the way Send does, without running a turn.
func CheckLength(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// Store is the part of the conversation store a turn needs.
type Store interface {
	RecentHistory(ctx context.Context, sessionID string, n int) ([]chat.Message, error)
	SaveMessage(ctx context.Context, message chat.Message) (chat.Message, error)
}

// Exchange is the result of one turn.
type Exchange struct {
	User   chat.Message `json:"user"`
	Reply  chat.Message `json:"reply"`
	Crisis bool         `json:"crisis"`
}

// Conversation drives turns against a Store, allowing one in-flight turn per session.
type Conversation struct {
	store     Store
	responder *Responder

	mu     sync.Mutex
	active map[string]struct{}
}

// NewConversation creates a Conversation.
func NewConversation(store Store, responder *Responder) *Conversation {
	return &Conversation{
		store:     store,
		responder: responder,
		active:    make(map[string]struct{}),
	}
}

// Responder returns the underlying responder.
func (c *Conversation) Responder() *Responder {
	return c.responder
}

// Start appends the welcome message to a freshly created session.
func (c *Conversation) Start(ctx context.Context, sessionID, userName string) (chat.Message, error) {
	welcome := Welcome(c.responder.Persona(), sessionID, userName)
	saved, err := c.store.SaveMessage(ctx, welcome)
	if err != nil {
		return chat.Message{}, fmt.Errorf("save welcome message: %w", err)
	}
	return saved, nil
}

// Send stores the user message, generates the reply and stores it. History
// is read before the user message is appended, so it never contains the
// current text.
func (c *Conversation) Send(ctx context.Context, sessionID, userName, text string) (Exchange, error) {
	if err := CheckLength(text); err != nil {
		return Exchange{}, err
	}
	text = strings.TrimSpace(text)

	if !c.acquire(sessionID) {
		return Exchange{}, ErrTurnInProgress
	}
	defer c.release(sessionID)

	history, err := c.store.RecentHistory(ctx, sessionID, c.responder.HistoryLimit())
	if err != nil {
		return Exchange{}, fmt.Errorf("load history: %w", err)
	}

	label := c.responder.Classify(text)
	userMsg, err := c.store.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   text,
		Sentiment: label,
		Kind:      chat.KindText,
	})
	if err != nil {
		return Exchange{}, fmt.Errorf("save user message: %w", err)
	}

	reply := c.responder.Respond(ctx, Request{
		SessionID: sessionID,
		MessageID: userMsg.ID,
		Text:      text,
		UserName:  userName,
		History:   history,
	})

	saved, err := c.store.SaveMessage(ctx, reply)
	if err != nil {
		return Exchange{}, fmt.Errorf("save assistant message: %w", err)
	}

	return Exchange{
		User:   userMsg,
		Reply:  saved,
		Crisis: label == sentiment.Crisis,
	}, nil
}

func (c *Conversation) acquire(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.active[sessionID]; busy {
		return false
	}
	c.active[sessionID] = struct{}{}
	return true
}

func (c *Conversation) release(sessionID string) {
	c.mu.Lock()
	delete(c.active, sessionID)
	c.mu.Unlock()
}
