package chat

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful/backend/internal/handler/validation"
	"github.com/zhouzirui/mindful/backend/internal/model/activity"
	"github.com/zhouzirui/mindful/backend/internal/model/chat"
	"github.com/zhouzirui/mindful/backend/internal/model/crisis"
	"github.com/zhouzirui/mindful/backend/internal/model/mood"
	"github.com/zhouzirui/mindful/backend/internal/model/persona"
	activityService "github.com/zhouzirui/mindful/backend/internal/service/activity"
	chatService "github.com/zhouzirui/mindful/backend/internal/service/chat"
	"github.com/zhouzirui/mindful/backend/internal/service/companion"
	moodService "github.com/zhouzirui/mindful/backend/internal/service/mood"
	"github.com/zhouzirui/mindful/backend/internal/service/safety"
	"github.com/zhouzirui/mindful/backend/pkg/utils"
)

// Handler 聊天会话的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	conversation *companion.Conversation
	personaStore persona.Store
	moods        *moodService.Service
	activities   *activityService.Service
	monitor      *safety.Monitor
}

// UserData holds the per-session stores that export and delete cover. Nil stores are skipped.
type UserData struct {
	Moods      *moodService.Service
	Activities *activityService.Service
	Monitor    *safety.Monitor
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, conversation *companion.Conversation, personaStore persona.Store, data UserData) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		conversation: conversation,
		personaStore: personaStore,
		moods:        data.Moods,
		activities:   data.Activities,
		monitor:      data.Monitor,
	}
}

// Export is the "download my data" document.
type Export struct {
	ExportedAt  time.Time         `json:"exportedAt"`
	Session     chat.Session      `json:"session"`
	Messages    []chat.Message    `json:"messages"`
	MoodEntries []mood.Entry      `json:"moodEntries"`
	Activities  []activity.Record `json:"activities"`
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Delete("/sessions/{sessionID}", h.handleDeleteSession)
	r.Get("/sessions/{sessionID}/messages", h.handleListMessages)
	r.Post("/sessions/{sessionID}/messages", h.handleSendMessage)
	r.Get("/sessions/{sessionID}/export", h.handleExport)
	r.Get("/sessions/{sessionID}/alerts", h.handleListAlerts)
}

// handleCreateSession 创建会话并写入欢迎消息
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name      string `json:"name" validate:"max=80"`
		PersonaID string `json:"personaId" validate:"max=64"`
	}

	// 请求体可以为空，匿名用户使用默认人格
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := h.personaStore.Resolve(payload.PersonaID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "persona not found")
		return
	}

	name := strings.TrimSpace(payload.Name)
	session, err := h.chatSvc.CreateSession(r.Context(), p.ID, name)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	welcome, err := h.conversation.Start(r.Context(), session.ID, name)
	if err != nil {
		log.Printf("[chat] failed to store welcome message for session=%s: %v", session.ID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to start conversation")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"session": session,
		"welcome": welcome,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleListMessages 返回完整的会话记录
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSendMessage 执行一轮对话
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content" validate:"max=4000"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	exchange, err := h.conversation.Send(r.Context(), session.ID, session.UserName, payload.Content)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Printf("[chat] turn failed for session=%s: %v", session.ID, err)
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, exchange)
}

// handleDeleteSession 清除会话相关的全部数据
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.chatSvc.DeleteSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	if h.moods != nil {
		h.moods.Forget(sessionID)
	}
	if h.activities != nil {
		h.activities.Forget(sessionID)
	}
	if h.monitor != nil {
		h.monitor.Forget(sessionID)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	messages, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	export := Export{
		ExportedAt:  time.Now().UTC(),
		Session:     session,
		Messages:    messages,
		MoodEntries: []mood.Entry{},
		Activities:  []activity.Record{},
	}
	if h.moods != nil {
		if entries := h.moods.List(ctx, sessionID); entries != nil {
			export.MoodEntries = entries
		}
	}
	if h.activities != nil {
		if records := h.activities.List(ctx, sessionID); records != nil {
			export.Activities = records
		}
	}

	utils.RespondAttachment(w, "mindful-ai-data.json", export)
}

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	alerts := []crisis.Alert{}
	if h.monitor != nil {
		alerts = append(alerts, h.monitor.Alerts(sessionID)...)
	}
	utils.RespondJSON(w, http.StatusOK, alerts)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, companion.ErrEmptyMessage),
		errors.Is(err, companion.ErrMessageTooLong),
		errors.Is(err, chatService.ErrPersonaRequired),
		errors.Is(err, chatService.ErrEmptyContent),
		errors.Is(err, chatService.ErrInvalidSender):
		return http.StatusBadRequest
	case errors.Is(err, companion.ErrTurnInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
