package hmda

import (
	"net/http"

	"github.com/EmpoweredVote/fairlending-api/internal/batch"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/volume", batch.UseGETIn(h.LoanOriginations, h.log))

	return r
}
