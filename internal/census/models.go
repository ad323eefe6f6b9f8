package census

import "gorm.io/gorm"

// RaceStats holds the 2010 census race and ethnicity counts for one tract.
// The *_perc columns are derived from the counts on save.
type RaceStats struct {
	GeoID            string `gorm:"column:geoid;primaryKey;size:20" json:"-"`
	TotalPop         int    `json:"total_pop"`
	Hispanic         int    `json:"hispanic"`
	NonHispWhiteOnly int    `json:"non_hisp_white_only"`
	NonHispBlackOnly int    `json:"non_hisp_black_only"`
	NonHispAsianOnly int    `json:"non_hisp_asian_only"`

	HispanicPerc         float64 `json:"hispanic_perc"`
	NonHispWhiteOnlyPerc float64 `json:"non_hisp_white_only_perc"`
	NonHispBlackOnlyPerc float64 `json:"non_hisp_black_only_perc"`
	NonHispAsianOnlyPerc float64 `json:"non_hisp_asian_only_perc"`
}

func (RaceStats) TableName() string {
	return "census.race_stats"
}

// BeforeSave keeps the percentage columns consistent with the counts.
func (s *RaceStats) BeforeSave(tx *gorm.DB) error {
	s.ComputePercentages()
	return nil
}

// ComputePercentages sets every *_perc to 100 * count / total_pop, or 0 for
// an unpopulated tract.
func (s *RaceStats) ComputePercentages() {
	perc := func(n int) float64 {
		if s.TotalPop == 0 {
			return 0
		}
		return 100 * float64(n) / float64(s.TotalPop)
	}
	s.HispanicPerc = perc(s.Hispanic)
	s.NonHispWhiteOnlyPerc = perc(s.NonHispWhiteOnly)
	s.NonHispBlackOnlyPerc = perc(s.NonHispBlackOnly)
	s.NonHispAsianOnlyPerc = perc(s.NonHispAsianOnly)
}

// Field returns the named column's value. ok is false for names that are not
// numeric RaceStats columns.
func (s *RaceStats) Field(name string) (v float64, ok bool) {
	switch name {
	case "total_pop":
		return float64(s.TotalPop), true
	case "hispanic":
		return float64(s.Hispanic), true
	case "non_hisp_white_only":
		return float64(s.NonHispWhiteOnly), true
	case "non_hisp_black_only":
		return float64(s.NonHispBlackOnly), true
	case "non_hisp_asian_only":
		return float64(s.NonHispAsianOnly), true
	case "hispanic_perc":
		return s.HispanicPerc, true
	case "non_hisp_white_only_perc":
		return s.NonHispWhiteOnlyPerc, true
	case "non_hisp_black_only_perc":
		return s.NonHispBlackOnlyPerc, true
	case "non_hisp_asian_only_perc":
		return s.NonHispAsianOnlyPerc, true
	}
	return 0, false
}

// IsField reports whether name is a RaceStats column usable in statistics.
func IsField(name string) bool {
	_, ok := (&RaceStats{}).Field(name)
	return ok
}

// Households is the 2010 census household count for one tract.
type Households struct {
	GeoID string `gorm:"column:geoid;primaryKey;size:20" json:"geoid"`
	Total int    `json:"total"`
}

func (Households) TableName() string {
	return "census.households"
}
