/*
Package handler provides the HTTP handlers and routing setup for the StarSky Server.

This file defines the main Router, applying middleware like logging, CORS and IP-based
rate limiting before delegating requests to the API, WebSocket and static handlers.
*/
package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"starsky/internal/pkg/auth/jwt"
	"starsky/internal/pkg/limiter"
	"starsky/internal/pkg/logx"
	"starsky/internal/pkg/resp"
)

const (
	LoginRate     = 0.2
	LoginBurst    = 5
	PurchaseRate  = 1
	PurchaseBurst = 5
	SocketRate    = 0.5
	SocketBurst   = 10
)

// Router sets up the main HTTP routing table for the application.
// The rate limiters' cleanup loops stop when ctx is cancelled.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	loginLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(LoginRate), LoginBurst)
	purchaseLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(PurchaseRate), PurchaseBurst)
	socketLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(SocketRate), SocketBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}
			if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		logx.Debug("Health check endpoint hit")

		data := map[string]any{
			"status":        "ok",
			"service":       "StarSky Server",
			"sessions":      deps.Sessions.Len(),
			"sky_observers": deps.Sky.Len(),
			"chat_clients":  deps.Chat.Clients(),
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Get("/public_chat", HandlePublicChat(deps))
		api.Get("/stars", HandleStars(deps))
		api.Get("/skins", HandleSkins(deps))

		api.With(loginLimiter.Middleware).Post("/login", HandleLogin(deps))
		api.With(purchaseLimiter.Middleware).Post("/buy_skin", HandleBuySkin(deps))
		api.Post("/update_info", HandleUpdateInfo(deps))
	})

	r.With(socketLimiter.Middleware).Get("/ws", HandleSkySocket(wsUpgrader, deps))
	r.With(socketLimiter.Middleware).Get("/ws_chat", HandleChatSocket(wsUpgrader, deps))

	mountStatic(r, deps.Config.StaticDir)

	return r
}
