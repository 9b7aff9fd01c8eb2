package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/incomesense-be/internal/api/handlers"
	"github.com/isdelr/incomesense-be/internal/auth"
	"github.com/isdelr/incomesense-be/internal/services"
	"github.com/isdelr/incomesense-be/internal/websocket"
)

// TokenService issues and verifies session tokens.
type TokenService interface {
	handlers.TokenIssuer
	auth.Verifier
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	BasePath       string
	AllowedOrigins []string

	Tokens       TokenService
	Users        services.UserServiceProvider
	Transactions services.TransactionServiceProvider
	Summaries    services.SummaryServiceProvider
	Events       services.EventServiceProvider

	Hub     *websocket.Hub
	Store   handlers.Pinger
	Stats   handlers.StatsSource
	Started time.Time
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.Users, d.Tokens)
	transactionHandler := handlers.NewTransactionHandler(d.Transactions)
	summaryHandler := handlers.NewSummaryHandler(d.Summaries)
	eventHandler := handlers.NewEventHandler(d.Events)
	healthHandler := handlers.NewHealthHandler(d.Store, d.Stats, d.Started)

	r.Get("/health", healthHandler.Get)

	routes := func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", userHandler.Register)
				r.Post("/login", userHandler.Login)
				r.With(auth.Middleware(d.Tokens)).Get("/me", userHandler.GetMe)
			})

			if d.Hub != nil {
				wsHandler := handlers.NewWebSocketHandler(d.Hub, d.Tokens, d.AllowedOrigins)
				r.Get("/ws", wsHandler.Serve)
			}

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(d.Tokens))

				r.Route("/transactions", func(r chi.Router) {
					r.Get("/", transactionHandler.GetAll)
					r.Post("/", transactionHandler.Create)
					r.Put("/{id}", transactionHandler.Update)
					r.Delete("/{id}", transactionHandler.Delete)
				})
				r.Get("/summary", summaryHandler.Get)
				r.Get("/events", eventHandler.GetRecent)
			})
		})
	}

	if d.BasePath == "" {
		routes(r)
	} else {
		r.Route(d.BasePath, routes)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}` + "\n"))
	})

	return r
}
