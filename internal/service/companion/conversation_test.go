package companion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mindful/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/mindful/backend/internal/service/chat"
)

func newTestConversation(t *testing.T, gen Generator, alerter CrisisAlerter) (*Conversation, *chatservice.Service, chat.Session) {
	t.Helper()
	store := chatservice.NewService()
	session, err := store.CreateSession(context.Background(), "mindful-ai", "Sam")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	return NewConversation(store, newTestResponder(gen, alerter)), store, session
}

func TestSendStoresBothMessages(t *testing.T) {
	gen := &fakeGenerator{text: "That sounds exhausting. Want to talk about it?"}
	conv, store, session := newTestConversation(t, gen, nil)
	ctx := context.Background()

	if _, err := conv.Start(ctx, session.ID, session.UserName); err != nil {
		t.Fatalf("Start err: %v", err)
	}

	exchange, err := conv.Send(ctx, session.ID, session.UserName, "  I feel anxious and overwhelmed ")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}

	if exchange.User.Content != "I feel anxious and overwhelmed" || exchange.User.Sentiment != sentiment.Negative {
		t.Fatalf("unexpected user message: %+v", exchange.User)
	}
	if exchange.Reply.Content != gen.text || exchange.Reply.Sentiment != sentiment.Negative {
		t.Fatalf("unexpected reply: %+v", exchange.Reply)
	}
	if exchange.Crisis {
		t.Fatal("exchange should not be flagged as crisis")
	}

	transcript, err := store.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 3 {
		t.Fatalf("expected welcome + user + reply, got %d messages", len(transcript))
	}
	if transcript[1].ID != exchange.User.ID || transcript[2].ID != exchange.Reply.ID {
		t.Fatalf("transcript order mismatch: %+v", transcript)
	}
}

func TestSendHistoryExcludesCurrentMessage(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	conv, _, session := newTestConversation(t, gen, nil)
	ctx := context.Background()

	if _, err := conv.Send(ctx, session.ID, "", "first message"); err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if _, err := conv.Send(ctx, session.ID, "", "second message"); err != nil {
		t.Fatalf("Send err: %v", err)
	}

	body := gen.prompts[1].Body
	wantContext := "Previous conversation context:\nuser: first message\nassistant: ok\n\nUser's current message: second message"
	if !strings.Contains(body, wantContext) {
		t.Fatalf("unexpected prompt body:\n%s", body)
	}
}

func TestSendCrisisFlagsExchange(t *testing.T) {
	gen := &fakeGenerator{text: "unused"}
	alerter := &recordingAlerter{}
	conv, _, session := newTestConversation(t, gen, alerter)

	exchange, err := conv.Send(context.Background(), session.ID, "", "I want to end my life")
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}

	if !exchange.Crisis || exchange.User.Sentiment != sentiment.Crisis {
		t.Fatalf("expected crisis exchange, got %+v", exchange)
	}
	if gen.calls != 0 {
		t.Fatalf("remote model should not be called, got %d", gen.calls)
	}
	if len(alerter.alerts) != 1 || alerter.alerts[0].MessageID != exchange.User.ID {
		t.Fatalf("unexpected alerts: %+v", alerter.alerts)
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	conv, _, session := newTestConversation(t, nil, nil)

	if _, err := conv.Send(context.Background(), session.ID, "", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSendRejectsLongMessage(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	conv, store, session := newTestConversation(t, gen, nil)
	ctx := context.Background()

	long := strings.Repeat("é", MaxMessageLength+1)
	if _, err := conv.Send(ctx, session.ID, "", long); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("expected ErrMessageTooLong, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("remote model should not be called, got %d", gen.calls)
	}
	if transcript, _ := store.LoadTranscript(ctx, session.ID); len(transcript) != 0 {
		t.Fatalf("nothing should be stored, got %d messages", len(transcript))
	}

	// 按字符计数，而不是字节
	if _, err := conv.Send(ctx, session.ID, "", strings.Repeat("é", MaxMessageLength)); err != nil {
		t.Fatalf("message at the limit should pass, got %v", err)
	}
}

func TestSendUnknownSession(t *testing.T) {
	conv, _, _ := newTestConversation(t, nil, nil)

	_, err := conv.Send(context.Background(), "missing", "", "hello")
	if !errors.Is(err, chatservice.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSendRejectsConcurrentTurn(t *testing.T) {
	gen := &fakeGenerator{
		text:    "ok",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	conv, _, session := newTestConversation(t, gen, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := conv.Send(ctx, session.ID, "", "first")
		done <- err
	}()

	<-gen.entered
	if _, err := conv.Send(ctx, session.ID, "", "second"); !errors.Is(err, ErrTurnInProgress) {
		t.Fatalf("expected ErrTurnInProgress, got %v", err)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	gen.entered = nil
	if _, err := conv.Send(ctx, session.ID, "", "third"); err != nil {
		t.Fatalf("turn after release failed: %v", err)
	}
}
