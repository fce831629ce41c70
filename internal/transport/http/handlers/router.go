package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/vedran77/frameverse/internal/transport/http/middleware"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Posts    *PostHandler
	Chats    *ChatHandler
	Messages *MessageHandler
	Realtime http.Handler

	Authenticator  *middleware.Authenticator
	Errors         *ErrorStage
	Logger         zerolog.Logger
	AllowedOrigins []string
	HealthCheck    func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// The socket endpoint skips the response-wrapping middleware below.
	if cfg.Realtime != nil {
		r.Method(http.MethodGet, "/ws", cfg.Realtime)
	}

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(middleware.RequestLogger(cfg.Logger)...)
		r.Use(middleware.Recoverer(cfg.Errors.Recover))

		r.Get("/health", Health(cfg.HealthCheck))

		auth := cfg.Authenticator

		r.Route("/user", func(r chi.Router) {
			r.Post("/register", cfg.Auth.Register)
			r.Post("/login", cfg.Auth.Login)
			r.With(auth.OptionalAuth).Get("/profile/{id}", cfg.Users.PublicProfile)

			r.Group(func(r chi.Router) {
				r.Use(middleware.NoCache, auth.Auth)
				r.Post("/logout", cfg.Auth.Logout)
				r.Put("/updateProfile", cfg.Auth.UpdateProfile)
				r.Post("/avatar", cfg.Auth.Avatar)
				r.Get("/profile", cfg.Users.Profile)
				r.Get("/search", cfg.Users.Search)
				r.Post("/follow/{id}", cfg.Users.Follow)
				r.Post("/unfollow/{id}", cfg.Users.Unfollow)
				r.Get("/feed", cfg.Users.Feed)
			})
		})

		r.Route("/post", func(r chi.Router) {
			r.Use(middleware.NoCache, auth.Auth)
			r.Post("/create", cfg.Posts.Create)
			r.Post("/update/{id}", cfg.Posts.Update)
			r.Post("/{id}/like", cfg.Posts.Like)
			r.Get("/{id}", cfg.Posts.Get)
			r.Delete("/{id}", cfg.Posts.Delete)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(middleware.NoCache, auth.Auth)
			r.Get("/", cfg.Chats.List)
			r.Post("/create", cfg.Chats.CreateDirect)
			r.Post("/group", cfg.Chats.CreateGroup)
			r.Post("/message", cfg.Messages.Send)
			r.Get("/messages/{chatId}", cfg.Messages.List)
			r.Get("/{chatId}", cfg.Chats.Get)
			r.Post("/{chatId}/add", cfg.Chats.AddUser)
		})
	})

	return r
}

// Health reports 200 while check passes, 503 otherwise. A nil check always passes.
func Health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
