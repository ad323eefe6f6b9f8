package census

import (
	"net/http"

	"github.com/EmpoweredVote/fairlending-api/internal/batch"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/race-summary", batch.UseGETIn(h.RaceSummary, h.log))
	r.Post("/statistics", h.Statistics)

	return r
}
