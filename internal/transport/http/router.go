package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/coderoom/internal/transport/http/middleware"
	"github.com/cwrk-planet/coderoom/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(h *Handler, wsHandler http.HandlerFunc, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(httputil.MiddlewareRequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httputil.MiddlewareLogging)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httputil.HeaderRequestID},
		ExposedHeaders:   []string{httputil.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ws", wsHandler)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewareChi.Timeout(opts.RequestTimeout))

		api.Get("/languages", h.Languages)
		api.Route("/sessions", func(rs chi.Router) {
			rs.Post("/", h.CreateRoom)
			rs.Route("/{roomId}", func(rr chi.Router) {
				rr.Get("/", h.GetRoom)
				rr.Get("/chat", h.ChatHistory)
				rr.With(httpmw.HostAuth(h.rooms.AuthorizeHost)).Delete("/", h.CloseRoom)
			})
		})
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
