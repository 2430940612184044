package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vinodyk/patient-appointments/config"
	"github.com/vinodyk/patient-appointments/handlers"
	"github.com/vinodyk/patient-appointments/middleware"
	"github.com/vinodyk/patient-appointments/routes"
	"github.com/vinodyk/patient-appointments/services/llm"
	"github.com/vinodyk/patient-appointments/services/session"
	"github.com/vinodyk/patient-appointments/services/workflow"
	"github.com/vinodyk/patient-appointments/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	ctx := context.Background()

	utils.InitSessionCache()
	sessionTTL := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	sessionStore := session.Store(session.NewRedisStore(utils.GetSessionCacheClient(), sessionTTL))

	// Fall back to the in-process store when Redis is unreachable, so a
	// local run without infrastructure still works.
	if err := utils.GetSessionCacheClient().Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, using in-memory session store", zap.Error(err))
		memStore, merr := session.NewMemoryStore(1024)
		if merr != nil {
			logger.Sugar().Fatalf("main: failed to initialize memory session store: %v", merr)
		}
		sessionStore = memStore
	}

	var completionClient llm.CompletionClient
	if key := config.AppConfig.GeminiAPIKey; key != "" {
		client, err := llm.NewGeminiClient(ctx, key, config.AppConfig.GeminiModel)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize completion client: %v", err)
		}
		defer client.Close()
		completionClient = client
	} else {
		logger.Warn("GEMINI_API_KEY not set, agents will run without completions")
	}

	orchestrator := workflow.New(completionClient)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(routes.CORSMiddleware())

	chatHandler := handlers.NewChatHandler(orchestrator, sessionStore)
	sessionHandler := handlers.NewSessionHandler(sessionStore)

	routes.RegisterChatRoutes(router, chatHandler, sessionHandler)
	routes.RegisterHealthRoute(router)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", config.AppConfig.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}
