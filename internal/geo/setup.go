package geo

import (
	"fmt"

	"github.com/EmpoweredVote/fairlending-api/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Init prepares the geo schema: PostGIS, tables and the spatial index.
func Init(d *gorm.DB, log *zap.Logger) error {
	if err := db.EnsureExtension(d, "postgis"); err != nil {
		return fmt.Errorf("enable postgis: %w", err)
	}

	if err := db.EnsureSchema(d, "geo"); err != nil {
		return fmt.Errorf("ensure schema geo: %w", err)
	}

	if err := d.AutoMigrate(&Geo{}); err != nil {
		return fmt.Errorf("auto-migrate geo tables: %w", err)
	}

	if err := d.Exec(`
		CREATE INDEX IF NOT EXISTS idx_geo_geom
		ON geo.geos USING GIST (geom);
	`).Error; err != nil {
		return fmt.Errorf("create idx_geo_geom: %w", err)
	}

	// folded names are searched both as prefixes and as words
	if err := d.Exec(`
		CREATE INDEX IF NOT EXISTS idx_geo_search_fts
		ON geo.geos USING GIN (to_tsvector('simple', search_name));
	`).Error; err != nil {
		return fmt.Errorf("create idx_geo_search_fts: %w", err)
	}

	log.Info("geo module initialized")
	return nil
}
