package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"storyshort/internal/http/handlers"
	"storyshort/internal/middleware"
)

type RouterOptions struct {
	Logger          zerolog.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/scripts", app.ScriptsGenerate)
	r.Post("/v1/images/search", app.ImagesSearch)
	r.Post("/v1/images/download", app.ImagesDownload)
	r.Post("/v1/voiceovers", app.VoiceoversCreate)

	// Rendering is the expensive route; it gets its own limit.
	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/v1/videos", app.VideosCreate)
	})

	return r
}
