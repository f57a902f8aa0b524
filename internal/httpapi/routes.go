package httpapi

import (
	"net/http"
	"time"

	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/HMasataka/scoreline/pkg/match"
	"github.com/HMasataka/scoreline/pkg/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Observer is the match binding exposed to presentation code
type Observer interface {
	Observe(id domain.MatchID)
	Stop()
	View() domain.View
	MatchID() domain.MatchID
	Commands() *match.Commands
}

// StatusSource reports the push channel status
type StatusSource interface {
	Status() realtime.Status
}

// SetupRoutes builds the HTTP bridge over the observed match and the push
// channel status.
func SetupRoutes(o Observer, status StatusSource, logger *logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", Healthz(status))

	r.Route("/match", func(r chi.Router) {
		r.Get("/", GetMatch(o))
		r.Delete("/", StopMatch(o))
		r.Put("/{matchID}", ObserveMatch(o))
		r.Post("/commands/{op}", SendCommand(o))
	})

	return r
}

func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqLogger := logger.WithFields(map[string]any{"request_id": middleware.GetReqID(r.Context())})
			r = r.WithContext(logging.WithLogger(r.Context(), reqLogger))

			next.ServeHTTP(ww, r)

			reqLogger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
