package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/chatserver/internal/api/handlers"
	"github.com/nikhilbhutani/chatserver/internal/api/middleware"
	"github.com/nikhilbhutani/chatserver/internal/auth"
	"github.com/nikhilbhutani/chatserver/internal/config"
)

// ChatService is the chat store plus the membership oracle the guard asks.
type ChatService interface {
	handlers.ChatService
	auth.MembershipOracle
}

// Deps are the services the routes are built on. DB and Redis may be nil,
// in which case /readyz skips them.
type Deps struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Verifier  auth.TokenVerifier
	Signer    handlers.TokenSigner
	Users     handlers.UserService
	Directory handlers.WorkspaceDirectory
	Chats     ChatService
	Files     handlers.FileStore
	Verify    handlers.VerifyScheduler
}

type Router struct {
	mux     *chi.Mux
	cfg     *config.Config
	deps    Deps
	limiter *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:     chi.NewRouter(),
		cfg:     cfg,
		deps:    deps,
		limiter: middleware.NewRateLimiter(cfg.Limits.AuthRPS, cfg.Limits.AuthBurst),
	}
}

// Limiter exposes the credential endpoints' rate limiter so the caller can
// run its cleanup loop.
func (rt *Router) Limiter() *middleware.RateLimiter { return rt.limiter }

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.deps.DB, rt.deps.Redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	authn := auth.NewAuthenticator(rt.deps.Verifier)
	member := auth.ChatMember(rt.deps.Chats, "id")

	authH := handlers.NewAuthHandler(rt.deps.Users, rt.deps.Signer)
	userH := handlers.NewUserHandler(rt.deps.Directory)
	chatH := handlers.NewChatHandler(rt.deps.Chats)
	fileH := handlers.NewFileHandler(rt.deps.Files, rt.deps.Verify, rt.cfg.Limits.MaxUploadBytes)

	// File URLs are issued as /files/...; /api/files/... serves the same blobs
	r.With(authn.Require()).Get("/files/*", fileH.Download)

	r.Route("/api", func(r chi.Router) {
		// Credential routes
		r.Group(func(r chi.Router) {
			r.Use(rt.limiter.Limit)
			r.Post("/signup", authH.Signup)
			r.Post("/signin", authH.Signin)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authn.Require())

			r.Get("/users", userH.List)
			r.Get("/chats", chatH.List)
			r.Post("/chats", chatH.Create)
			r.Post("/upload", fileH.Upload)
			r.Get("/files/*", fileH.Download)
		})

		// Chat-scoped routes: token first, then membership
		r.Route("/chats/{id}", func(r chi.Router) {
			r.Use(authn.Require(member))

			r.Get("/", chatH.Get)
			r.Patch("/", chatH.Update)
			r.Delete("/", chatH.Delete)
			r.Post("/", chatH.SendMessage)
			r.Get("/messages", chatH.ListMessages)
		})
	})

	return r
}
