package crisis

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mindful/backend/internal/model/crisis"
	"github.com/zhouzirui/mindful/backend/pkg/utils"
)

// Handler 危机支持资源
type Handler struct {
	resources crisis.Resources
}

// New 创建危机资源处理器
func New(resources crisis.Resources) *Handler {
	return &Handler{resources: resources}
}

// RegisterRoutes 注册危机资源路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/crisis/resources", h.handleResources)
}

func (h *Handler) handleResources(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.resources)
}
