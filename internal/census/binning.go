package census

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrNonMonotonicBins = errors.New("bins must be monotonically increasing or decreasing")

// Digitize returns, for every value, the index of the bin it falls into.
// For increasing bins index i satisfies bins[i-1] <= x < bins[i]; for
// decreasing bins bins[i-1] > x >= bins[i]. Values below (or above) every
// edge land in 0 and len(bins).
func Digitize(values, bins []float64) ([]int, error) {
	increasing, err := monotonicity(bins)
	if err != nil {
		return nil, err
	}

	out := make([]int, len(values))
	for i, x := range values {
		if increasing {
			out[i] = sort.Search(len(bins), func(j int) bool { return bins[j] > x })
		} else {
			out[i] = sort.Search(len(bins), func(j int) bool { return bins[j] <= x })
		}
	}
	return out, nil
}

// monotonicity reports true for non-decreasing bins, false for
// non-increasing ones. Constant or single-edge bins count as increasing.
func monotonicity(bins []float64) (bool, error) {
	up, down := true, true
	for i := 1; i < len(bins); i++ {
		if bins[i] < bins[i-1] {
			up = false
		}
		if bins[i] > bins[i-1] {
			down = false
		}
	}
	switch {
	case up:
		return true, nil
	case down:
		return false, nil
	}
	return false, ErrNonMonotonicBins
}

// Field is one column requested from the statistics endpoint.
type Field struct {
	Name string    `json:"name"`
	Type string    `json:"type"`
	Bins []float64 `json:"bins,omitempty"`
}

// BinnedField accumulates a column's values across tracts and, once
// digitized, the bin each tract fell into.
type BinnedField struct {
	Bins       []float64
	Values     []float64
	BinIndices map[string]int
}

// SplitBinnedAndRawFields separates requested fields into those to bin and
// those returned as-is. Names that are not RaceStats columns are dropped.
func SplitBinnedAndRawFields(requested []Field) (map[string]*BinnedField, []string) {
	bins := map[string]*BinnedField{}
	var raw []string
	for _, f := range requested {
		if !IsField(f.Name) {
			continue
		}
		if f.Type == "binned" {
			bins[f.Name] = &BinnedField{Bins: f.Bins}
		} else {
			raw = append(raw, f.Name)
		}
	}
	return bins, raw
}

// CollectFieldValues makes one pass over the tracts, appending each binned
// field's value, and returns the geoids in the same order.
func CollectFieldValues(stats []RaceStats, bins map[string]*BinnedField) []string {
	geoids := make([]string, 0, len(stats))
	for i := range stats {
		geoids = append(geoids, stats[i].GeoID)
		for name, b := range bins {
			v, _ := stats[i].Field(name)
			b.Values = append(b.Values, v)
		}
	}
	return geoids
}

// FindBinIndices digitizes a field's collected values against its bins.
func FindBinIndices(b *BinnedField) ([]int, error) {
	return Digitize(b.Values, b.Bins)
}

// FindAllBinIndices fills in BinIndices (geoid to bin) for every field.
func FindAllBinIndices(bins map[string]*BinnedField, geoids []string) error {
	for name, b := range bins {
		idx, err := FindBinIndices(b)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		b.BinIndices = make(map[string]int, len(geoids))
		for i, geoid := range geoids {
			b.BinIndices[geoid] = idx[i]
		}
	}
	return nil
}

// ProcessStatistics builds the per-tract statistics payload: "<field>_bin"
// for binned fields and the raw value for the rest.
func ProcessStatistics(stats []RaceStats, requested []Field) (map[string]map[string]any, error) {
	bins, raw := SplitBinnedAndRawFields(requested)
	geoids := CollectFieldValues(stats, bins)
	if err := FindAllBinIndices(bins, geoids); err != nil {
		return nil, err
	}

	data := make(map[string]map[string]any, len(stats))
	for i := range stats {
		s := &stats[i]
		row := make(map[string]any, len(bins)+len(raw))
		for name, b := range bins {
			row[name+"_bin"] = b.BinIndices[s.GeoID]
		}
		for _, name := range raw {
			row[name] = rawValue(s, name)
		}
		data[s.GeoID] = row
	}
	return data, nil
}

// rawValue keeps count columns as integers in the JSON output.
func rawValue(s *RaceStats, name string) any {
	v, _ := s.Field(name)
	if strings.HasSuffix(name, "_perc") {
		return v
	}
	return int(v)
}
