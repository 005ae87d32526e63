package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"familycard/internal/config"
	"familycard/internal/handlers"
	"familycard/internal/service"
	"familycard/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration; the external store settings are required
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// One long-lived client handle to the external Auth/Storage backend
	storeClient := store.NewHTTPClient(cfg.StoreURL, cfg.StoreServiceKey)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		slog.Error("failed to initialize email service", "error", err)
		os.Exit(1)
	}

	authService := service.NewAuthService(storeClient, cfg.StoreJWTSecret)
	familyService := service.NewFamilyService(storeClient, emailService)

	if cfg.StoreJWTSecret != "" {
		slog.Info("verifying access tokens locally")
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService)
	familyHandler := handlers.NewFamilyHandler(familyService)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /{$}", authHandler.Home)
	mux.HandleFunc("GET /healthz", authHandler.Home)
	mux.HandleFunc("POST /register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /forgot-password", middleware.RateLimit(authHandler.ForgotPassword))

	// Protected family routes
	mux.HandleFunc("POST /create-family", middleware.RequireAuth(familyHandler.CreateFamily))
	mux.HandleFunc("GET /families", middleware.RequireAuth(familyHandler.GetFamilies))
	mux.HandleFunc("PUT /family/{id}", middleware.RequireAuth(familyHandler.UpdateFamily))
	mux.HandleFunc("POST /family/{id}/members", middleware.RequireAuth(familyHandler.AddMembers))
	mux.HandleFunc("PUT /member/{id}", middleware.RequireAuth(familyHandler.UpdateMember))
	mux.HandleFunc("DELETE /member/{id}", middleware.RequireAuth(familyHandler.DeleteMember))

	// Wrap with CORS and logging middleware
	handler := handlers.Logging(handlers.CORS(mux))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		slog.Info("server starting", "addr", addr, "store", cfg.StoreURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
}
