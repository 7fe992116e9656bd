package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter wires all API routes.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(h.Log))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/check", h.CreateCheck).Methods(http.MethodPost)
	api.HandleFunc("/check/{id}", h.GetCheck).Methods(http.MethodGet)
	api.HandleFunc("/checks", h.ListChecks).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	api.HandleFunc("/agents", h.RegisterAgent).Methods(http.MethodPost)
	api.HandleFunc("/agents", h.ListAgents).Methods(http.MethodGet)
	api.HandleFunc("/agents/heartbeat", h.Heartbeat).Methods(http.MethodPost)

	api.HandleFunc("/agent/tasks", h.AgentTasks).Methods(http.MethodGet)
	api.HandleFunc("/agent/results", h.AgentResults).Methods(http.MethodPost)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.code),
				zap.Duration("took", time.Since(start)))
		})
	}
}
