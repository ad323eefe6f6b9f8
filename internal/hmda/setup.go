package hmda

import (
	"fmt"

	"github.com/EmpoweredVote/fairlending-api/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Init(d *gorm.DB, log *zap.Logger) error {
	if err := db.EnsureSchema(d, "hmda"); err != nil {
		return fmt.Errorf("ensure schema hmda: %w", err)
	}

	if err := d.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("auto-migrate hmda tables: %w", err)
	}

	log.Info("hmda module initialized")
	return nil
}
