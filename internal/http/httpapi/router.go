package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"rinova/internal/http/handlers"
	"rinova/internal/middleware"
)

// RouterOptions configures the HTTP surface around the handlers.
type RouterOptions struct {
	JWTSecret      string
	CORSOrigins    []string
	RateLimitPerIP int
	CountryLookup  middleware.CountryLookup
	Logger         func(http.Handler) http.Handler

	// StaticDir, when set, serves locally stored images under /static/.
	StaticDir string
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
	)
	if opts.Logger != nil {
		r.Use(opts.Logger)
	}
	r.Use(middleware.CORS(opts.CORSOrigins))
	if opts.RateLimitPerIP > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerIP, time.Minute))
	}
	r.Use(middleware.Geo(opts.CountryLookup))

	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", app.Register)
			r.Post("/login", app.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret))
			r.Post("/generate", app.Generate)
			r.Post("/generate/batch", app.GenerateBatch)
			r.Route("/history", func(r chi.Router) {
				r.Get("/", app.HistoryList)
				r.Delete("/{id}", app.HistoryDelete)
				r.Get("/{id}/download", app.HistoryDownload)
			})
		})
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
