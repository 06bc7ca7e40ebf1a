package customers

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers", h.list)
	r.Post("/customers", h.create)
	r.Get("/customers/{id}", h.show)
	r.Put("/customers/{id}", h.update)
	r.Delete("/customers/{id}", h.delete)
}
