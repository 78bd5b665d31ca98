package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agendio-push/internal/config"
	"agendio-push/internal/handler"
	"agendio-push/internal/service"
)

// NewPushHandler builds the relay handler from the loaded configuration.
// The service-account key is parsed here, once, and shared by every request.
func NewPushHandler(cfg *config.Config) (*handler.PushHandler, error) {
	tokens, err := service.NewServiceAccountTokens(cfg.ServiceAccountJSON)
	if err != nil {
		return nil, err
	}
	fcm := service.NewFCMClient(tokens, service.ProjectID)
	return handler.NewPushHandler(fcm), nil
}

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Build the relay
	pushHandler, err := NewPushHandler(cfg)
	if err != nil {
		return fmt.Errorf("failed to init push relay: %w", err)
	}
	if cfg.RelayJWTSecret != "" {
		log.Println("Caller authentication enabled")
	}

	router := NewRouter(RouterConfig{
		PushHandler: pushHandler,
		JWTSecret:   cfg.RelayJWTSecret,
	})

	// 3. Setup Server
	srv := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
