package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Miura55/freee-labor-bot/internal/server/service"
)

type Router struct {
	services        *service.Services
	logger          *slog.Logger
	maxRequestBytes int64
}

func NewRouter(services *service.Services, logger *slog.Logger, maxRequestBytes int64) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{services: services, logger: logger, maxRequestBytes: maxRequestBytes}
	mux := chi.NewRouter()
	mux.Use(requestID, r.accessLog, middleware.Recoverer)

	mux.Get("/health", r.handleHealth)
	mux.Post("/callback", r.handleCallback)
	mux.Post("/api/v1/register", r.handleRegister)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (r *Router) limitBody(w http.ResponseWriter, req *http.Request) {
	if r.maxRequestBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.maxRequestBytes)
	}
}
