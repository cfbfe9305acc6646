package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/soaringjerry/Surveyor/internal/api"
	"github.com/soaringjerry/Surveyor/internal/config"
	"github.com/soaringjerry/Surveyor/internal/middleware"
	"github.com/soaringjerry/Surveyor/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("store init failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	handler, err := newHandler(cfg, store)
	if err != nil {
		slog.Error("server init failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Surveyor server listening", "addr", cfg.Addr, "store", cfg.Store, "commit", cfg.Commit)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newHandler wires services, routes and middleware and bootstraps the admin account.
func newHandler(cfg *config.Config, store api.Store) (http.Handler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		slog.Warn("jwt_secret not set; using development secret")
	}
	var reportFont []byte
	if cfg.ReportFont != "" {
		if reportFont, err = os.ReadFile(cfg.ReportFont); err != nil {
			return nil, fmt.Errorf("read report_font: %w", err)
		}
	}
	var verifier services.Verifier
	if cfg.TurnstileSecret != "" {
		verifier = services.NewTurnstileVerifier(cfg.TurnstileSecret, cfg.TurnstileURL)
	}
	rt := api.NewRouter(api.Options{
		Store:         store,
		Authenticator: middleware.NewAuthenticator(cfg.JWTSecret),
		Verifier:      verifier,
		ReportFont:    reportFont,
		Location:      loc,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
		Commit:        cfg.Commit,
		BuildTime:     cfg.BuildTime,
	})
	if cfg.AdminEmail != "" {
		created, err := rt.Auth().EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword, services.RoleSuperAdmin)
		if err != nil {
			return nil, err
		}
		if created {
			slog.Info("admin account created", "email", cfg.AdminEmail)
		}
	}

	var h http.Handler = rt.Handler()
	h = middleware.LocaleMiddleware(h)
	h = middleware.NoStore(h)
	h = middleware.SecureHeaders(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.WithLogging(h)
	return h, nil
}
