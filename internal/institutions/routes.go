package institutions

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/search", h.Search)
	r.Get("/{lender}", h.GetInstitution)

	return r
}
