package invoices

import "github.com/go-chi/chi/v5"

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/aging", h.aging)
		r.Post("/overdue-sweep", h.sweepOverdue)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/send", h.send)
		r.Post("/{id}/cancel", h.cancel)
	})
	r.Get("/activity-types", h.listActivityTypes)
	r.Post("/activity-types", h.createActivityType)
	r.Delete("/activity-types/{id}", h.deleteActivityType)
}
