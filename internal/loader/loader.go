// Package loader imports boundary shapes, census tables, HMDA LAR files and
// the lender list into the database.
package loader

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/EmpoweredVote/fairlending-api/internal/census"
	"github.com/EmpoweredVote/fairlending-api/internal/geo"
	"github.com/EmpoweredVote/fairlending-api/internal/hmda"
	"github.com/EmpoweredVote/fairlending-api/internal/institutions"
	"github.com/EmpoweredVote/fairlending-api/internal/source"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GeoWriter interface {
	Upsert(ctx context.Context, geos []geo.Geo, batchSize int) error
}

type CensusWriter interface {
	UpsertRaceStats(ctx context.Context, rows []census.RaceStats, batchSize int) error
	UpsertHouseholds(ctx context.Context, rows []census.Households, batchSize int) error
}

type RecordWriter interface {
	Insert(ctx context.Context, records []hmda.Record, batchSize int) error
}

type InstitutionWriter interface {
	Upsert(ctx context.Context, rows []institutions.Institution, batchSize int) error
}

// Loader reads inputs through source.Open and writes them with the module
// stores.
type Loader struct {
	Geos         GeoWriter
	Census       CensusWriter
	HMDA         RecordWriter
	Institutions InstitutionWriter

	Objects   source.ObjectStore
	BatchSize int
	Log       *zap.Logger
}

// New wires a Loader to the gorm-backed stores.
func New(d *gorm.DB, objects source.ObjectStore, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		Geos:         geo.NewStore(d),
		Census:       census.NewStore(d),
		HMDA:         hmda.NewStore(d),
		Institutions: institutions.NewStore(d),
		Objects:      objects,
		BatchSize:    500,
		Log:          log,
	}
}

func (l *Loader) logger() *zap.Logger {
	if l.Log == nil {
		return zap.NewNop()
	}
	return l.Log
}

func (l *Loader) batchSize() int {
	if l.BatchSize <= 0 {
		return 500
	}
	return l.BatchSize
}

// run opens ref, hands it to load and logs the outcome under a run id.
func (l *Loader) run(ctx context.Context, kind, ref string, load func(io.Reader) (int, error)) (int, error) {
	log := l.logger().With(zap.String("run_id", uuid.NewString()), zap.String("kind", kind), zap.String("source", ref))
	start := time.Now()

	rc, err := source.Open(ctx, ref, l.Objects)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	n, err := load(rc)
	if err != nil {
		log.Error("load failed", zap.Int("rows", n), zap.Error(err))
		return n, fmt.Errorf("load %s from %s: %w", kind, ref, err)
	}
	log.Info("load finished", zap.Int("rows", n), zap.Duration("took", time.Since(start)))
	return n, nil
}

// LoadGeos upserts every feature of a GeoJSON FeatureCollection.
func (l *Loader) LoadGeos(ctx context.Context, ref string) (int, error) {
	return l.run(ctx, "geos", ref, func(r io.Reader) (int, error) {
		size := l.batchSize()
		pending := make([]geo.Geo, 0, size)
		flush := func() error {
			if len(pending) == 0 {
				return nil
			}
			err := l.Geos.Upsert(ctx, pending, size)
			pending = pending[:0]
			return err
		}

		n, err := ParseGeoJSON(r, func(g *geo.Geo) error {
			if !g.ContainsPoint(g.CentLat, g.CentLon) {
				l.logger().Warn("internal point outside shape",
					zap.Stringer("geo", g),
					zap.Float64("centlat", g.CentLat),
					zap.Float64("centlon", g.CentLon))
			}
			pending = append(pending, *g)
			if len(pending) >= size {
				return flush()
			}
			return nil
		})
		if err != nil {
			return n, err
		}
		return n, flush()
	})
}

// LoadRaceStats upserts tract race counts from a CSV with a header row.
func (l *Loader) LoadRaceStats(ctx context.Context, ref string) (int, error) {
	return l.run(ctx, "race", ref, func(r io.Reader) (int, error) {
		rows, err := ParseRaceStats(r)
		if err != nil {
			return 0, err
		}
		return len(rows), l.Census.UpsertRaceStats(ctx, rows, l.batchSize())
	})
}

// LoadHouseholds upserts tract household totals from a CSV with a header row.
func (l *Loader) LoadHouseholds(ctx context.Context, ref string) (int, error) {
	return l.run(ctx, "households", ref, func(r io.Reader) (int, error) {
		rows, err := ParseHouseholds(r)
		if err != nil {
			return 0, err
		}
		return len(rows), l.Census.UpsertHouseholds(ctx, rows, l.batchSize())
	})
}

// LoadInstitutions upserts the lender list.
func (l *Loader) LoadInstitutions(ctx context.Context, ref string) (int, error) {
	return l.run(ctx, "institutions", ref, func(r io.Reader) (int, error) {
		rows, err := ParseInstitutions(r)
		if err != nil {
			return 0, err
		}
		return len(rows), l.Institutions.Upsert(ctx, rows, l.batchSize())
	})
}

// LoadHMDA inserts LAR records in batches. Records without a tract are
// skipped and reported in the log.
func (l *Loader) LoadHMDA(ctx context.Context, ref string) (int, error) {
	return l.run(ctx, "hmda", ref, func(r io.Reader) (int, error) {
		size := l.batchSize()
		pending := make([]hmda.Record, 0, size)
		inserted := 0
		flush := func() error {
			if len(pending) == 0 {
				return nil
			}
			if err := l.HMDA.Insert(ctx, pending, size); err != nil {
				return err
			}
			inserted += len(pending)
			pending = pending[:0]
			return nil
		}

		skipped, err := ParseLAR(r, func(rec hmda.Record) error {
			pending = append(pending, rec)
			if len(pending) >= size {
				return flush()
			}
			return nil
		})
		if err != nil {
			return inserted, err
		}
		if err := flush(); err != nil {
			return inserted, err
		}
		if skipped > 0 {
			l.logger().Info("skipped LAR rows without a census tract", zap.Int("skipped", skipped))
		}
		return inserted, nil
	})
}
