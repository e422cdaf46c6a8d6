package db

import (
	"fmt"

	"github.com/zulandar/shopfloor/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration, parents before children.
func AllModels() []interface{} {
	return []interface{}{
		&models.WorkOrder{},
		&models.Product{},
		&models.Subassembly{},
		&models.StorageRack{},
		&models.Part{},
		&models.PlacedSheet{},
		&models.PartPlacement{},
		&models.ScanActivity{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
