package calculator

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the calculator, history and preference endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calculator", func(r chi.Router) {
		r.Get("/display", h.Display)
		r.Post("/digit", h.Digit)
		r.Post("/operator", h.Operator)
		r.Post("/compute", h.Compute)
		r.Post("/delete", h.Delete)
		r.Post("/clear", h.Clear)
		r.Post("/recall", h.Recall)
		r.Post("/keys", h.Keys)
	})
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.History)
		r.Get("/{id}", h.HistoryEntry)
	})
	r.Route("/preferences", func(r chi.Router) {
		r.Get("/", h.Preferences)
		r.Post("/{name}/toggle", h.TogglePreference)
	})
}
