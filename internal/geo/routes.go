package geo

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/tiles/{zoom}/{xtile}/{ytile}", h.Tiles)
	r.Get("/search", h.Search)
	r.Get("/geo/{geoid}", h.GetGeo)

	return r
}
