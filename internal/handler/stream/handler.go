package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful/backend/internal/model/chat"
	chatService "github.com/zhouzirui/mindful/backend/internal/service/chat"
	"github.com/zhouzirui/mindful/backend/internal/service/companion"
	"github.com/zhouzirui/mindful/backend/pkg/utils"
)

// Handler runs a conversation turn and reports its progress via Server-Sent Events
type Handler struct {
	chatSvc      *chatService.Service
	conversation *companion.Conversation
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, conversation *companion.Conversation) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		conversation: conversation,
	}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string        `json:"event"`
	Content   string        `json:"content,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
	Sentiment string        `json:"sentiment,omitempty"`
	Message   *chat.Message `json:"message,omitempty"`
	Finished  bool          `json:"finished,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// RegisterRoutes 注册流式对话路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		userMessage := r.URL.Query().Get("message")

		if userMessage == "" {
			utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
			return
		}
		if err := companion.CheckLength(userMessage); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}

		if err := h.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
			log.Printf("[stream] error handling request: %v", err)
		}
	})
}

// HandleStreamRequest runs one turn for a chat session and streams its stages
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return fmt.Errorf("streaming unsupported")
	}

	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	utils.SetupSSEHeaders(w)

	persona := h.conversation.Responder().Persona()
	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   fmt.Sprintf("%s is typing...", persona.Name),
	})

	exchange, err := h.conversation.Send(ctx, session.ID, session.UserName, userMessage)
	if err != nil {
		h.sendSSEError(w, flusher, sessionID, describe(err))
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "sentiment",
		SessionID: sessionID,
		Sentiment: string(exchange.User.Sentiment),
		Message:   &exchange.User,
	})

	if exchange.Crisis {
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "crisis",
			SessionID: sessionID,
			Content:   "crisis support resources are available at /api/crisis/resources",
		})
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   exchange.Reply.Content,
		Sentiment: string(exchange.Reply.Sentiment),
		Message:   &exchange.Reply,
	})

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] turn completed session=%s crisis=%t", sessionID, exchange.Crisis)
	return nil
}

// describe 将服务层错误转换为面向用户的提示
func describe(err error) string {
	switch {
	case errors.Is(err, companion.ErrEmptyMessage):
		return "message is empty"
	case errors.Is(err, companion.ErrMessageTooLong):
		return err.Error()
	case errors.Is(err, companion.ErrTurnInProgress):
		return "a reply is already being generated for this session"
	default:
		return "failed to process message"
	}
}

// sendSSE sends a Server-Sent Event
func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEEvent(w, flusher, response.Event, response)
}

// sendSSEError sends an error via Server-Sent Events
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, sessionID, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event:     "error",
		SessionID: sessionID,
		Error:     errorMsg,
		Finished:  true,
	})
}
