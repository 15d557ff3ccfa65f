package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zhouzirui/mindful/backend/internal/handler/chat"
	crisisHandler "github.com/zhouzirui/mindful/backend/internal/handler/crisis"
	moodHandler "github.com/zhouzirui/mindful/backend/internal/handler/mood"
	"github.com/zhouzirui/mindful/backend/internal/handler/persona"
	"github.com/zhouzirui/mindful/backend/internal/handler/realtime"
	"github.com/zhouzirui/mindful/backend/internal/handler/stream"
	"github.com/zhouzirui/mindful/backend/internal/handler/system"
	crisisModel "github.com/zhouzirui/mindful/backend/internal/model/crisis"
	"github.com/zhouzirui/mindful/backend/internal/observability"
	personaModel "github.com/zhouzirui/mindful/backend/internal/model/persona"
	activityService "github.com/zhouzirui/mindful/backend/internal/service/activity"
	chatService "github.com/zhouzirui/mindful/backend/internal/service/chat"
	"github.com/zhouzirui/mindful/backend/internal/service/companion"
	moodService "github.com/zhouzirui/mindful/backend/internal/service/mood"
	"github.com/zhouzirui/mindful/backend/internal/service/safety"
)

// Services bundles the core services exposed over HTTP.
type Services struct {
	Personas     personaModel.Store
	Chat         *chatService.Service
	Conversation *companion.Conversation
	Moods        *moodService.Service
	Activities   *activityService.Service
	Monitor      *safety.Monitor
	Crisis       crisisModel.Resources
	// Metrics is optional; when set, requests are measured and /metrics is served.
	Metrics *observability.Collector
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if svc.Metrics != nil {
		r.Use(svc.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create handlers
	personaHandler := persona.New(svc.Personas)
	chatHandler := chat.New(svc.Chat, svc.Conversation, svc.Personas, chat.UserData{
		Moods:      svc.Moods,
		Activities: svc.Activities,
		Monitor:    svc.Monitor,
	})
	streamHandler := stream.New(svc.Chat, svc.Conversation)
	wsHandler := realtime.NewWebSocketHandler(svc.Chat, svc.Conversation, allowedOrigins)
	moodRoutes := moodHandler.New(svc.Moods, svc.Activities, svc.Chat)
	crisisRoutes := crisisHandler.New(svc.Crisis)
	statusHandler := system.New(svc.Conversation.Responder())

	if svc.Metrics != nil {
		r.Handle("/metrics", svc.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		statusHandler.RegisterRoutes(api)
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		moodRoutes.RegisterRoutes(api)
		crisisRoutes.RegisterRoutes(api)

		// SSE 与 WebSocket 两种实时通道
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
