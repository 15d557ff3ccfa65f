package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mindful/backend/internal/config"
	"github.com/zhouzirui/mindful/backend/internal/handler"
	"github.com/zhouzirui/mindful/backend/internal/model/crisis"
	"github.com/zhouzirui/mindful/backend/internal/model/persona"
	"github.com/zhouzirui/mindful/backend/internal/observability"
	"github.com/zhouzirui/mindful/backend/internal/service/activity"
	"github.com/zhouzirui/mindful/backend/internal/service/ai"
	"github.com/zhouzirui/mindful/backend/internal/service/chat"
	"github.com/zhouzirui/mindful/backend/internal/service/companion"
	"github.com/zhouzirui/mindful/backend/internal/service/mood"
	"github.com/zhouzirui/mindful/backend/internal/service/safety"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	lexicon, err := cfg.Sentiment.Lexicon()
	if err != nil {
		log.Fatalf("failed to load sentiment lexicon: %v", err)
	}
	classifier := sentiment.NewClassifier(lexicon)
	if cfg.Sentiment.LexiconPath != "" {
		log.Printf("sentiment lexicon loaded from %s", cfg.Sentiment.LexiconPath)
		if cfg.Sentiment.Watch {
			watchLexicon(ctx, cfg.Sentiment.LexiconPath, classifier)
		}
	}

	var metrics *observability.Collector
	if cfg.Server.MetricsEnabled {
		metrics = observability.NewCollector()
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	companionPersona, ok := personaStore.Resolve(persona.DefaultID)
	if !ok {
		log.Fatalf("default persona %q missing", persona.DefaultID)
	}

	// 远程模型可选：未配置或初始化失败时全部走兜底回复
	var generator companion.Generator
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing with fallback responses - 请检查 Ark 模型相关环境变量")
		} else {
			generator = aiService
			if cfg.AI.BreakerFailures > 0 {
				breaker := ai.NewBreaker(aiService, ai.BreakerConfig{
					Failures: uint32(cfg.AI.BreakerFailures),
					Cooldown: cfg.AI.BreakerCooldown,
				})
				if metrics != nil {
					metrics.WatchCircuit(breaker.State)
				}
				generator = breaker
			}
			log.Printf("AI service initialized (timeout=%s history=%d breaker=%d)", cfg.AI.Timeout, cfg.AI.HistoryLimit, cfg.AI.BreakerFailures)
		}
	} else {
		log.Println("Ark 凭证未配置或已禁用，使用兜底回复")
	}

	var notify func(crisis.Alert)
	var observer companion.Observer
	if metrics != nil {
		notify = metrics.CrisisAlert
		observer = metrics
	}

	monitor := safety.NewMonitor(notify)
	responder := companion.NewResponder(companion.Config{
		Classifier:   classifier,
		Generator:    generator,
		Persona:      companionPersona,
		Alerter:      monitor,
		HistoryLimit: cfg.AI.HistoryLimit,
		Observer:     observer,
	})

	chatService := chat.NewService()
	router := handler.NewRouter(handler.Services{
		Personas:     personaStore,
		Chat:         chatService,
		Conversation: companion.NewConversation(chatService, responder),
		Moods:        mood.NewService(),
		Activities:   activity.NewService(),
		Monitor:      monitor,
		Crisis:       crisis.Default(),
		Metrics:      metrics,
	}, cfg.Server.AllowedOrigins)

	startServer(ctx, cfg.Server, router)
}

func watchLexicon(ctx context.Context, path string, classifier *sentiment.Classifier) {
	watcher, err := sentiment.NewWatcher(path, classifier)
	if err != nil {
		log.Printf("warning: lexicon hot reload disabled: %v", err)
		return
	}
	go watcher.Run(ctx)
	log.Printf("watching %s for lexicon changes", path)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("MindfulAI backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
