package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mindful/backend/internal/config"
)

const (
	defaultTimeout = 20 * time.Second
	probeMessage   = "Hello"
)

// ErrUnavailable is carried by completions from a service that was never configured.
var ErrUnavailable = errors.New("remote model unavailable")

// FailureReason classifies why a completion did not produce text.
type FailureReason string

const (
	ReasonNone        FailureReason = ""
	ReasonUnavailable FailureReason = "unavailable"
	ReasonTimeout     FailureReason = "timeout"
	ReasonRemote      FailureReason = "remote_error"
	ReasonEmpty       FailureReason = "empty_completion"
	// ReasonCircuitOpen means the call was skipped because recent calls kept failing.
	ReasonCircuitOpen FailureReason = "circuit_open"
	// ReasonCanceled means the caller went away; it says nothing about the model's health.
	ReasonCanceled FailureReason = "canceled"
)

// Completion is the outcome of one remote call: either Text, or a Reason
// with the underlying Err.
type Completion struct {
	Text   string
	Reason FailureReason
	Err    error
}

// OK reports whether the completion carries usable text.
func (c Completion) OK() bool {
	return c.Reason == ReasonNone
}

func failed(reason FailureReason, err error) Completion {
	return Completion{Reason: reason, Err: err}
}

// Prompt is the rendered request: persona instructions plus the turn body.
type Prompt struct {
	System string
	Body   string
}

// Service wraps the hosted chat model behind a single-completion call.
type Service struct {
	chatModel model.ChatModel
	timeout   time.Duration
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the Ark-backed model from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg.Timeout)
}

// NewServiceWithModel builds the prompt chain around an existing chat model.
// A non-positive timeout falls back to 20s.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, timeout time.Duration) (*Service, error) {
	if chatModel == nil {
		return nil, ErrUnavailable
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		timeout:   timeout,
		chain:     runnable,
	}, nil
}

// Available reports whether the service can issue remote calls. A nil
// *Service is valid and unavailable.
func (s *Service) Available() bool {
	return s != nil && s.chain != nil
}

// Complete sends the prompt and waits for a single completion, bounded by
// the configured timeout. Failures are reported in the result, never as panics.
func (s *Service) Complete(ctx context.Context, p Prompt) Completion {
	if !s.Available() {
		return failed(ReasonUnavailable, ErrUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.chain.Invoke(callCtx, map[string]any{
		"system": p.System,
		"prompt": p.Body,
	})
	return s.toCompletion(ctx, callCtx, response, err)
}

// Probe issues a minimal "Hello" request to check reachability.
func (s *Service) Probe(ctx context.Context) Completion {
	if !s.Available() {
		return failed(ReasonUnavailable, ErrUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.chatModel.Generate(callCtx, []*schema.Message{schema.UserMessage(probeMessage)})
	return s.toCompletion(ctx, callCtx, response, err)
}

func (s *Service) toCompletion(parent, callCtx context.Context, response *schema.Message, err error) Completion {
	if err != nil {
		// 调用方取消（如浏览器关闭页面）不算模型故障
		if errors.Is(parent.Err(), context.Canceled) {
			log.Printf("[ai] remote call canceled by caller")
			return failed(ReasonCanceled, err)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			log.Printf("[ai] remote call timed out after %s", s.timeout)
			return failed(ReasonTimeout, err)
		}
		log.Printf("[ai] remote call failed: %v", err)
		return failed(ReasonRemote, err)
	}

	if response == nil || strings.TrimSpace(response.Content) == "" {
		log.Printf("[ai] remote call returned empty completion")
		return failed(ReasonEmpty, errors.New("no response received from remote model"))
	}

	log.Printf("[ai] completion received, length=%d", len(response.Content))
	return Completion{Text: response.Content}
}
