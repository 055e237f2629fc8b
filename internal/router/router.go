package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"product-catalog-api/internal/config"
	"product-catalog-api/internal/handler"
	"product-catalog-api/internal/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Product *handler.ProductHandler
	Audit   *handler.AuditHandler
	Docs    *handler.DocsHandler
	// Events serves the websocket change feed. Optional.
	Events http.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", handler.Health)
	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/swagger", h.Docs.SwaggerUI)

	r.Route("/v1", func(api chi.Router) {
		api.Group(func(g chi.Router) {
			g.Use(middleware.Timeout(cfg.RequestTimeout))

			g.Route("/users", func(users chi.Router) {
				users.Post("/register", h.Auth.Register)
				users.Post("/login", h.Auth.Login)
				users.With(authMiddleware.RequireAuth).Get("/me", h.User.Me)
			})

			g.Route("/products", func(products chi.Router) {
				products.Use(authMiddleware.RequireAuth)
				products.Get("/", h.Product.List)
				products.Post("/", h.Product.Create)
				products.Get("/{id}", h.Product.Get)
				products.Put("/{id}", h.Product.Update)
				products.Delete("/{id}", h.Product.Delete)
			})

			g.With(authMiddleware.RequireAuth).Get("/audit", h.Audit.List)
		})

		// http.TimeoutHandler cannot hijack, so the feed sits outside the timeout group.
		if h.Events != nil {
			api.With(authMiddleware.RequireAuthOrQuery).Get("/ws", h.Events.ServeHTTP)
		}
	})

	return r
}
