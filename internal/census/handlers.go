package census

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/EmpoweredVote/fairlending-api/internal/batch"
	"github.com/EmpoweredVote/fairlending-api/internal/httputil"
	"go.uber.org/zap"
)

// ErrMissingParams is returned when a county is not fully specified.
var ErrMissingParams = batch.BadRequest("Missing one of state_fips, county_fips")

const maxStatisticsBody = 1 << 20

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

// RaceSummary returns the race stats of every tract in a county keyed by
// geoid. It is registered with the batch endpoint as "minority".
func (h *Handler) RaceSummary(ctx context.Context, p batch.Params) (any, error) {
	stateFIPS, countyFIPS := p.Get("state_fips"), p.Get("county_fips")
	if stateFIPS == "" || countyFIPS == "" {
		return nil, ErrMissingParams
	}

	stats, err := h.store.RaceByCounty(ctx, stateFIPS, countyFIPS)
	if err != nil {
		return nil, err
	}

	data := make(map[string]RaceStats, len(stats))
	for _, s := range stats {
		data[s.GeoID] = s
	}
	return data, nil
}

// StatisticsRequest is the POST body of the statistics endpoint.
type StatisticsRequest struct {
	StateFIPS  string  `json:"state_fips"`
	CountyFIPS string  `json:"county_fips"`
	Fields     []Field `json:"fields"`
}

// StatisticsResponse echoes the request alongside the per-tract data.
type StatisticsResponse struct {
	Data   map[string]map[string]any `json:"data"`
	Fields json.RawMessage           `json:"fields"`
}

// Statistics bins the requested fields of every tract in a county.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxStatisticsBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var req StatisticsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.StateFIPS == "" || req.CountyFIPS == "" {
		http.Error(w, ErrMissingParams.Error(), http.StatusBadRequest)
		return
	}

	stats, err := h.store.RaceByCounty(r.Context(), req.StateFIPS, req.CountyFIPS)
	if err != nil {
		h.log.Error("race by county failed",
			zap.String("state_fips", req.StateFIPS),
			zap.String("county_fips", req.CountyFIPS),
			zap.Error(err))
		http.Error(w, "Failed to load statistics", http.StatusInternalServerError)
		return
	}

	data, err := ProcessStatistics(stats, req.Fields)
	if err != nil {
		if errors.Is(err, ErrNonMonotonicBins) {
			http.Error(w, "Bins must be monotonic", http.StatusBadRequest)
			return
		}
		h.log.Error("statistics failed", zap.Error(err))
		http.Error(w, "Failed to compute statistics", http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, StatisticsResponse{Data: data, Fields: json.RawMessage(body)})
}
