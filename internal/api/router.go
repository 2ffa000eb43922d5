package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/campus-events/server/internal/api/handlers"
	"github.com/campus-events/server/internal/api/middleware"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/config"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/feedback"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/campus-events/server/internal/metrics"
	"github.com/campus-events/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Dependencies carries everything the router needs. The repository handle is
// injected; nothing here reaches for process-wide state. The rate limiter is
// owned by the caller, which stops its eviction goroutine on shutdown.
type Dependencies struct {
	Config      config.Config
	Logger      zerolog.Logger
	Pool        *pgxpool.Pool
	Repo        *postgres.Repository
	Notifier    events.Notifier
	RateLimiter *middleware.RateLimiter
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	env := cfg.Environment

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)
	usersService := users.NewService(deps.Repo.Users(), tokens, cfg.Auth.EmailDomain, deps.Logger)
	eventsService := events.NewService(deps.Repo.Events(), deps.Notifier, deps.Logger)
	feedbackService := feedback.NewService(deps.Repo.Feedback(), deps.Repo.Events(), deps.Logger)

	authHandler := handlers.NewAuthHandler(usersService, env)
	eventsHandler := handlers.NewEventsHandler(eventsService, env)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, env)

	authenticated := middleware.BearerAuth(tokens, env)
	adminOnly := middleware.RequireAdmin(env)

	// The limiter reads the tier from the request context, so the tier marker
	// must wrap it.
	limited := func(handler http.Handler) http.Handler {
		return deps.RateLimiter.Middleware(handler)
	}
	loginLimited := func(handler http.Handler) http.Handler {
		return middleware.WithRateLimitTier(middleware.TierLogin)(deps.RateLimiter.Middleware(handler))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(deps.Pool))
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/api/v1/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: limited(http.HandlerFunc(authHandler.Register)),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: loginLimited(http.HandlerFunc(authHandler.Login)),
	}))

	mux.Handle("/api/v1/users/{id}/deactivate", methodMux(map[string]http.Handler{
		http.MethodPost: limited(authenticated(adminOnly(http.HandlerFunc(authHandler.Deactivate)))),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  limited(authenticated(http.HandlerFunc(eventsHandler.List))),
		http.MethodPost: limited(authenticated(http.HandlerFunc(eventsHandler.Propose))),
	}))
	mux.Handle("/api/v1/events/mine", methodMux(map[string]http.Handler{
		http.MethodGet: limited(authenticated(http.HandlerFunc(eventsHandler.Mine))),
	}))
	mux.Handle("/api/v1/events/pending", methodMux(map[string]http.Handler{
		http.MethodGet: limited(authenticated(adminOnly(http.HandlerFunc(eventsHandler.Pending)))),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: limited(authenticated(http.HandlerFunc(eventsHandler.Get))),
	}))
	mux.Handle("/api/v1/events/{id}/approve", methodMux(map[string]http.Handler{
		http.MethodPost: limited(authenticated(adminOnly(http.HandlerFunc(eventsHandler.Approve)))),
	}))
	mux.Handle("/api/v1/events/{id}/reject", methodMux(map[string]http.Handler{
		http.MethodPost: limited(authenticated(adminOnly(http.HandlerFunc(eventsHandler.Reject)))),
	}))
	mux.Handle("/api/v1/events/{id}/register", methodMux(map[string]http.Handler{
		http.MethodPost: limited(authenticated(http.HandlerFunc(eventsHandler.Register))),
	}))
	mux.Handle("/api/v1/events/{id}/feedback", methodMux(map[string]http.Handler{
		http.MethodGet:  limited(authenticated(http.HandlerFunc(feedbackHandler.ListByEvent))),
		http.MethodPost: limited(authenticated(http.HandlerFunc(feedbackHandler.Submit))),
	}))

	return chain(mux,
		middleware.RequestLogging(deps.Logger),
		metrics.HTTPMiddleware,
		middleware.CORS(cfg.CORS, deps.Logger),
		middleware.RequestSize(middleware.DefaultMaxBodySize),
	)
}

// chain applies middleware so the first listed runs outermost.
func chain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
