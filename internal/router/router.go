package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"psychicline-backend/internal/handlers"
	"psychicline-backend/internal/middleware"
	"psychicline-backend/internal/models"
	"psychicline-backend/internal/websocket"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Psychics    *handlers.PsychicHandler
	Users       *handlers.UserHandler
	Wallet      *handlers.WalletHandler
	ChatRequest *handlers.ChatRequestHandler
	AdminData   *handlers.AdminDataHandler
	Payments    *handlers.PaymentHandler
	Stats       *handlers.StatsHandler
	Messages    *handlers.MessageHandler
	Ratings     *handlers.RatingHandler
}

func New(
	jwtAuth *middleware.JWTAuth,
	h Handlers,
	wsHub *websocket.Hub,
	frontendURL string,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	userOnly := middleware.RequireRole(models.RoleUser)
	psychicOnly := middleware.RequireRole(models.RolePsychic)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {

		// ──── Auth ────
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter.Middleware).Post("/register", h.Auth.Register)
			r.With(authLimiter.Middleware).Post("/login", h.Auth.Login)
			r.With(authLimiter.Middleware).Post("/refresh", h.Auth.Refresh)
			r.Post("/logout", h.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/me", h.Auth.Me)
			})
		})
		r.With(authLimiter.Middleware).Post("/admin/login", h.Auth.AdminLogin)

		// ──── Marketplace (public) ────
		r.Get("/psychics", h.Psychics.ListPublic)
		r.Get("/psychics/{id}", h.Psychics.GetPublic)
		r.Post("/messages", h.Messages.Create)
		r.Post("/analytics/track", h.Stats.Track)

		// ──── Psychic accounts ────
		r.Route("/human-psychics", func(r chi.Router) {
			r.With(authLimiter.Middleware).Post("/login", h.Auth.PsychicLogin)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.With(psychicOnly).Get("/me/earnings", h.Psychics.MyEarnings)

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Get("/", h.Psychics.ListWithEarnings)
					r.Post("/admin/create", h.Psychics.Create)
					r.Put("/admin/{id}/toggle-verify", h.Psychics.ToggleVerify)
					r.Delete("/admin/{id}", h.Psychics.Delete)
				})
			})
		})

		// ──── Chat requests and sessions ────
		r.Route("/chatrequest", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Group(func(r chi.Router) {
				r.Use(userOnly)
				r.Get("/pending/{psychicId}", h.ChatRequest.GetOutstanding)
				r.Post("/send-request", h.ChatRequest.Send)
				r.Post("/start-session", h.ChatRequest.StartSession)
				r.Delete("/requests/{id}", h.ChatRequest.Cancel)
			})

			r.Group(func(r chi.Router) {
				r.Use(psychicOnly)
				r.Get("/psychic/requests", h.ChatRequest.Inbox)
				r.Put("/requests/{id}/accept", h.ChatRequest.Accept)
				r.Put("/requests/{id}/reject", h.ChatRequest.Reject)
			})

			r.With(middleware.RequireRole(models.RoleUser, models.RolePsychic)).Post("/sessions/{id}/end", h.ChatRequest.EndSession)
			r.Get("/sessions/{id}", h.ChatRequest.GetSession)
		})

		// ──── Wallet ────
		r.Route("/wallet", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.With(userOnly).Get("/balance", h.Wallet.Balance)
			r.With(userOnly).Get("/transactions", h.Wallet.Transactions)
			r.With(adminOnly).Post("/add-credits", h.Wallet.AddCredits)
		})

		// ──── Ratings ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.With(userOnly).Post("/ratings", h.Ratings.Create)
			r.With(adminOnly).Get("/ratings", h.Ratings.List)
			r.With(adminOnly).Delete("/feedback/{id}", h.Ratings.Delete)
		})

		// ──── Admin ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(adminOnly)

			r.Get("/users/all", h.Users.List)
			r.Put("/users/update-user/{id}", h.Users.Update)
			r.Delete("/users/{id}", h.Users.Delete)

			r.Get("/admindata/chats", h.AdminData.Chats)
			r.Get("/admindata/chats/psychics", h.AdminData.ChatsByPsychic)
			r.Get("/admindata/chats/psychics/{id}", h.AdminData.PsychicChats)
			r.Get("/admindata/chats/{id}", h.AdminData.Chat)

			r.Get("/admin/payments/psychic/{id}", h.Payments.Earnings)
			r.Post("/admin/payments/psychic/{id}/pay", h.Payments.Pay)
			r.Get("/admin/payments/psychic/{id}/payments", h.Payments.History)

			r.Get("/stats", h.Stats.Platform)
			r.Get("/analytics/visitor-stats", h.Stats.VisitorStats)

			r.Get("/messages", h.Messages.List)
			r.Get("/messages/{id}", h.Messages.Get)
			r.Post("/messages/{id}/reply", h.Messages.Reply)
			r.Delete("/messages/{id}", h.Messages.Delete)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
