package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Logger      zerolog.Logger
	CORSOrigins []string
	// RequestTimeout applies to the cart routes only; the assistant stream is
	// bounded by the chat idle timeout instead.
	RequestTimeout time.Duration
}

// NewRouter mounts the cart API and, when assistant is not nil, the chat gateway.
func NewRouter(cfg RouterConfig, carts *CartHandler, assistant http.Handler) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "apikey", "x-client-info"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))

			r.Post("/quote", carts.Quote)

			r.Route("/carts/{profile}", func(r chi.Router) {
				r.Get("/", carts.GetCart)
				r.Delete("/", carts.ClearCart)
				r.Put("/open", carts.SetOpen)
				r.Post("/checkout", carts.Checkout)
				r.Post("/items", carts.AddItem)
				r.Patch("/items/{id}", carts.UpdateItem)
				r.Delete("/items/{id}", carts.RemoveItem)
			})
		})

		if assistant != nil {
			r.Method(http.MethodPost, "/assistant", assistant)
		}
	})

	return r
}
