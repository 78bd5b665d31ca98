package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"agendio-push/internal/handler"
	"agendio-push/internal/httputil"
	authmw "agendio-push/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	PushHandler *handler.PushHandler
	// JWTSecret enables caller authentication on the relay when set
	JWTSecret string
}

// NewRouter creates the chi router serving the relay
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The relay accepts any method; it only reads the body.
	r.Group(func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(authmw.AuthMiddleware(cfg.JWTSecret))
		}
		r.HandleFunc("/", cfg.PushHandler.Send)
		r.HandleFunc("/send-push", cfg.PushHandler.Send)
	})

	return r
}
