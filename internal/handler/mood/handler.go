package mood

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful/backend/internal/handler/validation"
	"github.com/zhouzirui/mindful/backend/internal/model/activity"
	"github.com/zhouzirui/mindful/backend/internal/model/chat"
	"github.com/zhouzirui/mindful/backend/internal/model/mood"
	activityService "github.com/zhouzirui/mindful/backend/internal/service/activity"
	chatService "github.com/zhouzirui/mindful/backend/internal/service/chat"
	moodService "github.com/zhouzirui/mindful/backend/internal/service/mood"
	"github.com/zhouzirui/mindful/backend/pkg/utils"
)

// Handler 情绪记录、练习记录与进度统计的HTTP处理器
type Handler struct {
	moods      *moodService.Service
	activities *activityService.Service
	chatSvc    *chatService.Service
}

// New 创建情绪处理器
func New(moods *moodService.Service, activities *activityService.Service, chatSvc *chatService.Service) *Handler {
	if activities == nil {
		activities = activityService.NewService()
	}
	return &Handler{moods: moods, activities: activities, chatSvc: chatSvc}
}

// Progress combines mood statistics, completed activities and conversation counts.
type Progress struct {
	mood.Stats
	activity.Totals
	Exchanges    int                    `json:"exchanges"`
	Activities   []activity.Target      `json:"activities"`
	Achievements []activity.Achievement `json:"achievements"`
}

// RegisterRoutes 注册情绪相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions/{sessionID}/moods", h.handleRecord)
	r.Get("/sessions/{sessionID}/moods", h.handleList)
	r.Post("/sessions/{sessionID}/activities", h.handleRecordActivity)
	r.Get("/sessions/{sessionID}/activities", h.handleListActivities)
	r.Get("/sessions/{sessionID}/progress", h.handleProgress)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	var payload struct {
		Mood             int      `json:"mood" validate:"required,min=1,max=10"`
		Emotions         []string `json:"emotions" validate:"max=20,dive,max=40"`
		Notes            string   `json:"notes" validate:"max=2000"`
		Triggers         []string `json:"triggers" validate:"max=20,dive,max=80"`
		CopingStrategies []string `json:"copingStrategies" validate:"max=20,dive,max=80"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.moods.Record(r.Context(), mood.Entry{
		SessionID:        sessionID,
		Mood:             payload.Mood,
		Emotions:         payload.Emotions,
		Notes:            payload.Notes,
		Triggers:         payload.Triggers,
		CopingStrategies: payload.CopingStrategies,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, moodService.ErrInvalidMood) || errors.Is(err, moodService.ErrIncompleteEntry) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	entries := h.moods.List(r.Context(), sessionID)
	if entries == nil {
		entries = []mood.Entry{}
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

// handleRecordActivity 记录一次完成的 CBT 练习或正念练习
func (h *Handler) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	var payload struct {
		Kind            string            `json:"kind" validate:"required,oneof=cbt mindfulness"`
		Exercise        string            `json:"exercise" validate:"required,max=40"`
		Title           string            `json:"title" validate:"max=120"`
		DurationMinutes int               `json:"durationMinutes" validate:"min=0,max=600"`
		Responses       map[string]string `json:"responses" validate:"max=20,dive,keys,max=80,endkeys,max=2000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.activities.Record(r.Context(), activity.Record{
		SessionID:       sessionID,
		Kind:            activity.Kind(payload.Kind),
		Exercise:        payload.Exercise,
		Title:           payload.Title,
		DurationMinutes: payload.DurationMinutes,
		Responses:       payload.Responses,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, activityService.ErrUnknownKind) ||
			errors.Is(err, activityService.ErrUnknownExercise) ||
			errors.Is(err, activityService.ErrDurationRequired) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleListActivities(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	records := h.activities.List(r.Context(), sessionID)
	if records == nil {
		records = []activity.Record{}
	}
	utils.RespondJSON(w, http.StatusOK, records)
}

// handleProgress 汇总情绪统计、练习完成情况、成就和对话次数
func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")
	transcript, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	stats := h.moods.Stats(ctx, sessionID)
	totals := h.activities.Totals(ctx, sessionID)

	utils.RespondJSON(w, http.StatusOK, Progress{
		Stats:        stats,
		Totals:       totals,
		Exchanges:    countExchanges(transcript),
		Activities:   activityService.Targets(stats.TotalEntries, totals),
		Achievements: activityService.Achievements(stats.TotalEntries, stats.StreakDays, totals),
	})
}

// countExchanges counts assistant replies; the opening welcome message is not one.
func countExchanges(transcript []chat.Message) int {
	count := 0
	for i, msg := range transcript {
		if msg.Sender != chat.SenderAssistant {
			continue
		}
		if i == 0 {
			continue
		}
		count++
	}
	return count
}
