package hmda

import (
	"context"

	"github.com/EmpoweredVote/fairlending-api/internal/batch"
	"go.uber.org/zap"
)

var ErrMissingParams = batch.BadRequest("Missing one of state_fips, county_fips, lender")

// Volume is the loan volume reported for one tract.
type Volume struct {
	Volume                 int     `json:"volume"`
	NumHouseholds          *int    `json:"num_households"`
	VolumePer100Households float64 `json:"volume_per_100_households"`
}

// VolumePer100Households normalizes originations by the number of
// households in the tract. Unknown or zero household counts give 0.
func VolumePer100Households(volume int, numHouseholds *int) float64 {
	if numHouseholds == nil || *numHouseholds == 0 {
		return 0
	}
	return float64(volume) * 100.0 / float64(*numHouseholds)
}

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

// LoanOriginations returns a lender's loan volume per tract in a county. It
// is registered with the batch endpoint as "loanVolume".
func (h *Handler) LoanOriginations(ctx context.Context, p batch.Params) (any, error) {
	stateFIPS, countyFIPS, lender := p.Get("state_fips"), p.Get("county_fips"), p.Get("lender")
	if stateFIPS == "" || countyFIPS == "" || lender == "" {
		return nil, ErrMissingParams
	}

	rows, err := h.store.LoanOriginations(ctx, stateFIPS, countyFIPS, lender)
	if err != nil {
		return nil, err
	}

	data := make(map[string]Volume, len(rows))
	for _, row := range rows {
		data[row.GeoID] = Volume{
			Volume:                 row.Volume,
			NumHouseholds:          row.NumHouseholds,
			VolumePer100Households: VolumePer100Households(row.Volume, row.NumHouseholds),
		}
	}
	return data, nil
}
