package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/EmpoweredVote/fairlending-api/internal/textfold"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchLimit caps the number of geos returned by a name search.
const SearchLimit = 25

// SearchResult is the short form of a geo returned by name search.
type SearchResult struct {
	GeoID   string  `gorm:"column:geoid" json:"geoid"`
	GeoType int     `gorm:"column:geo_type" json:"geo_type"`
	Name    string  `gorm:"column:name" json:"name"`
	CentLat float64 `gorm:"column:centlat" json:"centlat"`
	CentLon float64 `gorm:"column:centlon" json:"centlon"`
}

// Store reads boundary shapes.
type Store interface {
	InTile(ctx context.Context, types []int, box BBox, tolerance float64) ([]FeatureRow, error)
	ByID(ctx context.Context, geoid string, tolerance float64) (*FeatureRow, error)
	Search(ctx context.Context, q string, auto bool, limit int) ([]SearchResult, error)
}

// GormStore is the PostGIS-backed Store. It also writes geos for the loader.
type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// featureSelect renders the geometry through PostGIS so the Go side never
// touches coordinates on the read path.
const featureSelect = `
		SELECT geoid, geo_type, name, state, county, tract, csa, cbsa,
			minlat, maxlat, minlon, maxlon, centlat, centlon,
			ST_AsGeoJSON(ST_SimplifyPreserveTopology(geom, ?)) AS geometry
		FROM geo.geos
`

// InTile returns geos of the given types whose bounding box overlaps the
// tile or whose centroid lies inside it.
func (s *GormStore) InTile(ctx context.Context, types []int, box BBox, tolerance float64) ([]FeatureRow, error) {
	if len(types) == 0 {
		return []FeatureRow{}, nil
	}

	ids := make([]int64, len(types))
	for i, t := range types {
		ids[i] = int64(t)
	}

	query := featureSelect + `
		WHERE geo_type = ANY(?)
		  AND (
			(minlat <= ? AND maxlat >= ? AND minlon <= ? AND maxlon >= ?)
			OR (centlat BETWEEN ? AND ? AND centlon BETWEEN ? AND ?)
		  )
		ORDER BY geoid
	`

	var rows []FeatureRow
	err := s.db.WithContext(ctx).Raw(query,
		tolerance, pq.Array(ids),
		box.MaxLat, box.MinLat, box.MaxLon, box.MinLon,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("tile lookup query failed: %w", err)
	}
	return rows, nil
}

// ByID returns one geo or gorm.ErrRecordNotFound.
func (s *GormStore) ByID(ctx context.Context, geoid string, tolerance float64) (*FeatureRow, error) {
	var rows []FeatureRow
	err := s.db.WithContext(ctx).Raw(featureSelect+`
		WHERE geoid = ?
		LIMIT 1
	`, tolerance, geoid).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("geo lookup failed: %w", err)
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// Search matches folded names: when auto is set (as-you-type completion)
// every query word must start some word of the name, otherwise a full-text
// word match.
func (s *GormStore) Search(ctx context.Context, q string, auto bool, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > SearchLimit {
		limit = SearchLimit
	}

	results := []SearchResult{}
	tx := s.db.WithContext(ctx).Model(&Geo{}).
		Select("geoid, geo_type, name, centlat, centlon")
	if auto {
		tsq := textfold.PrefixTSQuery(q)
		if tsq == "" {
			return results, nil
		}
		tx = tx.Where("to_tsvector('simple', search_name) @@ to_tsquery('simple', ?)", tsq)
	} else {
		tx = tx.Where("to_tsvector('simple', search_name) @@ plainto_tsquery('simple', ?)", textfold.Fold(q))
	}

	if err := tx.Order("geo_type, name").Limit(limit).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("geo search failed: %w", err)
	}
	return results, nil
}

// Upsert inserts or replaces geos by geoid. BeforeSave recomputes the
// derived columns of every row.
func (s *GormStore) Upsert(ctx context.Context, geos []Geo, batchSize int) error {
	if len(geos) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "geoid"}},
		UpdateAll: true,
	}).CreateInBatches(geos, batchSize).Error
	if err != nil {
		return fmt.Errorf("upsert geos: %w", err)
	}
	return nil
}

// IsNotFound reports whether err means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
