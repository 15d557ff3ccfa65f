package companion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mindful/backend/internal/model/chat"
	"github.com/zhouzirui/mindful/backend/internal/model/crisis"
	"github.com/zhouzirui/mindful/backend/internal/model/persona"
	"github.com/zhouzirui/mindful/backend/internal/service/ai"
)

// DefaultHistoryLimit is how many trailing messages are rendered into the prompt.
const DefaultHistoryLimit = 4

// Generator is the remote completion boundary. *ai.Service implements it,
// including as a nil pointer.
type Generator interface {
	Available() bool
	Complete(ctx context.Context, p ai.Prompt) ai.Completion
	Probe(ctx context.Context) ai.Completion
}

// CrisisAlerter is notified whenever a user message is classified as crisis.
type CrisisAlerter interface {
	CrisisDetected(ctx context.Context, alert crisis.Alert)
}

// Outcome names the path a turn took.
type Outcome string

const (
	OutcomeCrisis   Outcome = "crisis"
	OutcomeRemote   Outcome = "remote"
	OutcomeFallback Outcome = "fallback"
)

// Observer receives turn and remote-call measurements.
type Observer interface {
	TurnCompleted(outcome Outcome, label sentiment.Label)
	RemoteCompleted(reason ai.FailureReason, elapsed time.Duration)
}

// Config wires a Responder.
type Config struct {
	Classifier *sentiment.Classifier
	// Generator may be nil; every reply then comes from the fallback templates.
	Generator    Generator
	Persona      persona.Persona
	Alerter      CrisisAlerter
	HistoryLimit int
	// Observer is optional.
	Observer Observer
}

// Request is one user turn.
type Request struct {
	SessionID string
	// MessageID identifies the stored user message, when there is one.
	MessageID string
	Text      string
	UserName  string
	History   []chat.Message
}

// Responder decides how to answer a user message: crisis resources, a
// remote completion, or a canned fallback. It never returns an error.
type Responder struct {
	classifier   *sentiment.Classifier
	generator    Generator
	persona      persona.Persona
	alerter      CrisisAlerter
	observer     Observer
	historyLimit int
	now          func() time.Time
}

// NewResponder builds a Responder. A nil classifier uses the built-in lexicon.
func NewResponder(cfg Config) *Responder {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = sentiment.NewDefaultClassifier()
	}

	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	return &Responder{
		classifier:   classifier,
		generator:    cfg.Generator,
		persona:      cfg.Persona,
		alerter:      cfg.Alerter,
		observer:     cfg.Observer,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Classify exposes the responder's classifier.
func (r *Responder) Classify(text string) sentiment.Label {
	return r.classifier.Classify(text)
}

// HistoryLimit is the number of trailing messages the prompt includes.
func (r *Responder) HistoryLimit() int {
	return r.historyLimit
}

// Persona returns the companion persona used for prompts and templates.
func (r *Responder) Persona() persona.Persona {
	return r.persona
}

// RemoteConfigured reports whether a remote model is wired in.
func (r *Responder) RemoteConfigured() bool {
	return r.generator != nil && r.generator.Available()
}

// Respond produces the assistant reply for req. The reply's sentiment is
// the user message's sentiment.
func (r *Responder) Respond(ctx context.Context, req Request) chat.Message {
	label := r.classifier.Classify(req.Text)

	if label == sentiment.Crisis {
		r.raiseAlert(ctx, req)
		log.Printf("[companion] crisis detected session=%s, returning crisis resources", req.SessionID)
		r.observeTurn(OutcomeCrisis, label)
		return r.reply(req.SessionID, crisisResponse, label)
	}

	if !r.RemoteConfigured() {
		log.Printf("[companion] remote model unavailable session=%s, using fallback", req.SessionID)
		r.observeTurn(OutcomeFallback, label)
		return r.fallback(req, label)
	}

	prompt := ai.BuildPrompt(&r.persona, ai.TurnContext{
		UserName:  req.UserName,
		Sentiment: label,
		History:   lastMessages(req.History, r.historyLimit),
		Message:   req.Text,
	})

	started := r.now()
	completion := r.complete(ctx, prompt)
	if r.observer != nil {
		r.observer.RemoteCompleted(completion.Reason, r.now().Sub(started))
	}

	if !completion.OK() {
		log.Printf("[companion] remote completion failed session=%s reason=%s err=%v, using fallback", req.SessionID, completion.Reason, completion.Err)
		r.observeTurn(OutcomeFallback, label)
		return r.fallback(req, label)
	}

	r.observeTurn(OutcomeRemote, label)
	return r.reply(req.SessionID, completion.Text, label)
}

func (r *Responder) observeTurn(outcome Outcome, label sentiment.Label) {
	if r.observer != nil {
		r.observer.TurnCompleted(outcome, label)
	}
}

// Probe reports whether the remote model answers a minimal request.
func (r *Responder) Probe(ctx context.Context) bool {
	if !r.RemoteConfigured() {
		return false
	}
	result := r.generator.Probe(ctx)
	if !result.OK() {
		log.Printf("[companion] connectivity probe failed reason=%s err=%v", result.Reason, result.Err)
		return false
	}
	return true
}

func (r *Responder) complete(ctx context.Context, prompt ai.Prompt) (result ai.Completion) {
	defer func() {
		if p := recover(); p != nil {
			result = ai.Completion{Reason: ai.ReasonRemote, Err: fmt.Errorf("generator panic: %v", p)}
		}
	}()
	return r.generator.Complete(ctx, prompt)
}

func (r *Responder) fallback(req Request, label sentiment.Label) chat.Message {
	return r.reply(req.SessionID, FallbackText(label, req.UserName), label)
}

func (r *Responder) raiseAlert(ctx context.Context, req Request) {
	if r.alerter == nil {
		return
	}
	r.alerter.CrisisDetected(ctx, crisis.Alert{
		SessionID:  req.SessionID,
		MessageID:  req.MessageID,
		Text:       req.Text,
		DetectedAt: r.now().UTC(),
	})
}

func (r *Responder) reply(sessionID, content string, label sentiment.Label) chat.Message {
	return chat.Message{
		ID:        chat.NewMessageID(),
		SessionID: sessionID,
		Sender:    chat.SenderAssistant,
		Content:   content,
		Sentiment: label,
		Kind:      chat.KindText,
		CreatedAt: r.now().UTC(),
	}
}

func lastMessages(history []chat.Message, n int) []chat.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
