package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"fitforge/internal/http/handlers"
	"fitforge/internal/middleware"
)

// Options tunes the router beyond the handler set.
type Options struct {
	Logger          zerolog.Logger
	RateLimitPerMin int
	AllowedOrigins  []string

	// StaticDir, when set, serves stored assets under /static/. Used with the
	// filesystem storage driver; S3 serves its own URLs.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
	)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Post("/webhook", app.Webhook)
	r.Post("/workout", app.Workout)

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
