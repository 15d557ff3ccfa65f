package system

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful/backend/internal/service/companion"
	"github.com/zhouzirui/mindful/backend/pkg/utils"
)

// probeTTL bounds how often /status reaches the remote model.
const probeTTL = 30 * time.Second

// Handler 服务状态探测
type Handler struct {
	responder *companion.Responder
	now       func() time.Time

	mu     sync.Mutex
	cached *Status
}

// New 创建状态处理器
func New(responder *companion.Responder) *Handler {
	return &Handler{responder: responder, now: time.Now}
}

// Status reports whether replies can come from the remote model.
type Status struct {
	RemoteConfigured bool      `json:"remoteConfigured"`
	RemoteReachable  bool      `json:"remoteReachable"`
	CheckedAt        time.Time `json:"checkedAt"`
}

// RegisterRoutes 注册状态路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.handleStatus)
}

// handleStatus 未配置远程模型时不发起探测
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.status(r.Context()))
}

// status 返回缓存的探测结果；并发请求在锁上等待同一次探测。
func (h *Handler) status(ctx context.Context) Status {
	if !h.responder.RemoteConfigured() {
		return Status{CheckedAt: h.now().UTC()}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cached != nil && h.now().Sub(h.cached.CheckedAt) < probeTTL {
		return *h.cached
	}

	status := Status{
		RemoteConfigured: true,
		RemoteReachable:  h.responder.Probe(ctx),
		CheckedAt:        h.now().UTC(),
	}
	// 请求被取消时的探测结果不可信，不缓存
	if ctx.Err() == nil {
		h.cached = &status
	}
	return status
}
