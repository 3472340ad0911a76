package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/masterblog/backend/internal/config"
	"github.com/zhouzirui/masterblog/backend/internal/handler/post"
	"github.com/zhouzirui/masterblog/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/masterblog/backend/internal/middleware"
	postService "github.com/zhouzirui/masterblog/backend/internal/service/post"
	"github.com/zhouzirui/masterblog/backend/pkg/utils"
)

// Dependencies groups what the router needs. Limiter may be nil to disable
// rate limiting.
type Dependencies struct {
	Posts   *postService.Service
	Metrics *metrics.Collector
	Limiter *middlewarePkg.RateLimiter
	Logger  *zap.Logger
	CORS    config.CORSConfig
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.CORS.AllowedOrigins))
	r.Use(middlewarePkg.Metrics(deps.Metrics))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	postHandler := post.New(deps.Posts, deps.Metrics, deps.Logger)

	r.Route("/api", func(api chi.Router) {
		if deps.Limiter != nil {
			api.Use(deps.Limiter.Handler)
		}

		// Register post routes
		postHandler.RegisterRoutes(api)
	})

	return r
}
