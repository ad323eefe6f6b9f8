package geo

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/fairlending-api/internal/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Options tune how shapes are served.
type Options struct {
	SimplifyTolerance float64
	TileMaxAge        time.Duration
}

type Handler struct {
	store Store
	log   *zap.Logger
	opts  Options
}

func NewHandler(store Store, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, log: log, opts: opts}
}

var errInvalidGeoTypes = errors.New("invalid geo_types")

// ParseGeoTypes reads the comma separated geo_types parameter. When it is
// absent, tracts are returned from MinFeatureZoom down and nothing above.
func ParseGeoTypes(raw string, zoom int) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if zoom >= MinFeatureZoom {
			return []int{TractType}, nil
		}
		return nil, nil
	}

	seen := map[int]bool{}
	var types []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := strconv.Atoi(part)
		if err != nil || !ValidType(t) {
			return nil, errInvalidGeoTypes
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types, nil
}

// Tiles serves the geos drawn on one slippy-map tile as a FeatureCollection.
func (h *Handler) Tiles(w http.ResponseWriter, r *http.Request) {
	zoom, errZ := strconv.Atoi(chi.URLParam(r, "zoom"))
	xtile, errX := strconv.Atoi(chi.URLParam(r, "xtile"))
	ytile, errY := strconv.Atoi(chi.URLParam(r, "ytile"))
	if errZ != nil || errX != nil || errY != nil {
		http.Error(w, "Invalid tile coordinates", http.StatusBadRequest)
		return
	}
	if err := ValidateTile(zoom, xtile, ytile); err != nil {
		http.Error(w, "Invalid tile coordinates", http.StatusBadRequest)
		return
	}

	types, err := ParseGeoTypes(r.URL.Query().Get("geo_types"), zoom)
	if err != nil {
		http.Error(w, "Invalid geo_types", http.StatusBadRequest)
		return
	}

	box := TileBounds(zoom, xtile, ytile)

	start := time.Now()
	rows, err := h.store.InTile(r.Context(), types, box, h.opts.SimplifyTolerance)
	if err != nil {
		h.log.Error("tile lookup failed",
			zap.Int("zoom", zoom), zap.Int("x", xtile), zap.Int("y", ytile), zap.Error(err))
		http.Error(w, "Failed to load tile", http.StatusInternalServerError)
		return
	}
	dbread := time.Since(start)

	features := make([]Feature, 0, len(rows))
	for _, row := range rows {
		features = append(features, row.Feature())
	}

	httputil.AddServerTiming(w, [2]string{"dbread", httputil.Millis(dbread)})
	if h.opts.TileMaxAge > 0 {
		httputil.AddCacheHeaders(w, h.opts.TileMaxAge)
	}
	httputil.WriteJSON(w, NewFeatureCollection(features))
}

// Search looks geos up by name. auto=1 switches to prefix matching for
// autocomplete.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "Missing q", http.StatusBadRequest)
		return
	}
	auto := isTruthy(r.URL.Query().Get("auto"))

	results, err := h.store.Search(r.Context(), q, auto, SearchLimit)
	if err != nil {
		h.log.Error("geo search failed", zap.String("q", q), zap.Error(err))
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, map[string]any{"geos": results})
}

// GetGeo returns a single geo as a Feature.
func (h *Handler) GetGeo(w http.ResponseWriter, r *http.Request) {
	geoid := chi.URLParam(r, "geoid")

	row, err := h.store.ByID(r.Context(), geoid, h.opts.SimplifyTolerance)
	if err != nil {
		if IsNotFound(err) {
			http.Error(w, "Geo not found", http.StatusNotFound)
			return
		}
		h.log.Error("geo lookup failed", zap.String("geoid", geoid), zap.Error(err))
		http.Error(w, "Failed to load geo", http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, row.Feature())
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
