package institutions

import (
	"net/http"
	"strings"

	"github.com/EmpoweredVote/fairlending-api/internal/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	store Store
	log   *zap.Logger
}

func NewHandler(store Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, log: log}
}

// GetInstitution returns one lender by its agency code + respondent id key.
func (h *Handler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	lender := chi.URLParam(r, "lender")

	inst, err := h.store.ByLender(r.Context(), lender)
	if err != nil {
		if IsNotFound(err) {
			http.Error(w, "Institution not found", http.StatusNotFound)
			return
		}
		h.log.Error("institution lookup failed", zap.String("lender", lender), zap.Error(err))
		http.Error(w, "Failed to load institution", http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, inst)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "Missing q", http.StatusBadRequest)
		return
	}

	results, err := h.store.Search(r.Context(), q, SearchLimit)
	if err != nil {
		h.log.Error("institution search failed", zap.String("q", q), zap.Error(err))
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, map[string]any{"institutions": results})
}
