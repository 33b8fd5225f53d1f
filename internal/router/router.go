package router

import (
	"net/http"
	"time"

	"kudos-cafe/internal/handler"
	"kudos-cafe/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// requestTimeout bounds every route except the event stream.
const requestTimeout = 15 * time.Second

// publicRoutes skip the API key check.
var publicRoutes = []string{
	"/health",
	"GET /api/menu",
	"GET /api/gallery",
	"GET /api/reviews",
	"POST /api/contact",
	"GET /media/",
}

// Handlers groups the HTTP handlers the router dispatches to.
type Handlers struct {
	Order   *handler.OrderHandler
	Message *handler.MessageHandler
	Stream  *handler.StreamHandler
	Menu    *handler.MenuHandler
	Review  *handler.ReviewHandler
	Gallery *handler.GalleryHandler
	Admin   *handler.AdminHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> Logging -> CORS -> APIKeyAuth -> Actor
	r.Use(chimw.RequestID, chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger, publicRoutes...))
	r.Use(middleware.Actor(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Get("/media/*", h.Gallery.Media)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RequireActor).Get("/messages/stream", h.Stream.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))

			r.Get("/menu", h.Menu.List)
			r.Get("/gallery", h.Gallery.List)
			r.Get("/reviews", h.Review.List)
			r.Post("/contact", h.Message.Contact)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActor)

				r.Post("/orders", h.Order.Place)
				r.Get("/orders", h.Order.History)
				r.Get("/orders/{id}", h.Order.GetByID)
				r.Post("/orders/{id}/cancellation", h.Message.RequestCancellation)
				r.Post("/orders/{id}/reorder", h.Message.RequestReorder)
				r.Post("/orders/{id}/messages", h.Message.Reply)
				r.Get("/messages/threads", h.Message.Threads)
				r.Post("/messages/{id}/read", h.Message.MarkRead)
				r.Post("/reviews", h.Review.Submit)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/orders", h.Order.AdminList)
				r.Patch("/orders/{id}/status", h.Order.UpdateStatus)

				r.Post("/messages/{id}/approve", h.Message.Approve)
				r.Post("/messages/{id}/deny", h.Message.Deny)
				r.Get("/contact", h.Message.ContactInquiries)

				r.Get("/menu", h.Menu.AdminList)
				r.Post("/menu", h.Menu.Create)
				r.Put("/menu/{id}", h.Menu.Update)
				r.Delete("/menu/{id}", h.Menu.Delete)
				r.Patch("/menu/{id}/stock", h.Menu.AdjustStock)
				r.Get("/inventory.csv", h.Menu.ExportInventory)

				r.Post("/gallery", h.Gallery.Upload)
				r.Delete("/gallery/{id}", h.Gallery.Delete)

				r.Get("/reviews", h.Review.AdminList)
				r.Post("/reviews/{id}/approve", h.Review.Approve)
				r.Delete("/reviews/{id}", h.Review.Delete)

				r.Get("/users", h.Admin.Users)
				r.Patch("/users/{id}/role", h.Admin.UpdateRole)
				r.Get("/analytics", h.Admin.Analytics)
			})
		})
	})

	return r
}
