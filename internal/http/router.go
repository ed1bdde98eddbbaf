package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-business-finder/internal/http/handlers"
	"github.com/pribylovaa/go-business-finder/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// AllowedOrigins — источники для CORS; "*" — любой.
	AllowedOrigins []string
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.BusinessService, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // X-Request-Id до логирования
		middleware.Logging(opts.Logger), // request-scoped логгер в контекст
		middleware.CORS(opts.AllowedOrigins),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	h := handlers.New(svc)

	root.Get("/health", h.Health)
	root.Route("/api/business", func(r chi.Router) {
		r.Post("/search", h.SearchBusinesses)
		r.Get("/{placeId}", h.GetBusiness)
	})

	return root
}
