package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"videogen/internal/http/handlers"
	"videogen/internal/infra"
	"videogen/internal/middleware"
)

// Options carries the router settings taken from configuration.
type Options struct {
	FrontendOrigins []string
	VideosDir       string
	VideoBaseURL    string
	RateLimitPerMin int
	TrustProxy      bool
	Logger          infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.FrontendOrigins),
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/generate-video", app.GenerateVideo)
		r.Get("/progress/{requestId}", app.Progress)
		r.Get("/videos", app.Videos)
	})

	if opts.VideosDir != "" {
		prefix := videoRoutePrefix(opts.VideoBaseURL)
		r.Handle(prefix+"/*", http.StripPrefix(prefix, noDirListing(http.FileServer(http.Dir(opts.VideosDir)))))
	}

	return r
}

// videoRoutePrefix returns the path component of the public video base URL,
// so absolute URLs still map onto a local route.
func videoRoutePrefix(baseURL string) string {
	path := baseURL
	if u, err := url.Parse(strings.TrimSpace(baseURL)); err == nil {
		path = u.Path
	}
	prefix := "/" + strings.Trim(path, "/")
	if prefix == "/" {
		return "/videos"
	}
	return prefix
}

// noDirListing serves files only; http.FileServer handles Range requests.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
