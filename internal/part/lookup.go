package part

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/shopfloor/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilters holds optional filters for listing parts.
type ListFilters struct {
	ProductID   string
	WorkOrderID string
	Statuses    []string
}

// Get retrieves a part by ID.
func Get(db *gorm.DB, id string) (*models.Part, error) {
	var p models.Part
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("part: %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("part: get %s: %w", id, err)
	}
	return &p, nil
}

// GetForUpdate re-reads a part inside tx, locking its row where the
// database supports it.
func GetForUpdate(tx *gorm.DB, id string) (*models.Part, error) {
	var p models.Part
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("part: %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("part: lock %s: %w", id, err)
	}
	return &p, nil
}

// FindByNumber resolves a scanned part number, ignoring case and surrounding
// whitespace. Part numbers may repeat across work orders, so a part still
// waiting to be sorted wins over one that has already moved on; ties go to
// the oldest part.
func FindByNumber(db *gorm.DB, partNumber string) (*models.Part, error) {
	partNumber = strings.TrimSpace(partNumber)
	if partNumber == "" {
		return nil, fmt.Errorf("part: empty part number: %w", ErrNotFound)
	}
	var parts []models.Part
	if err := db.Where("LOWER(part_number) = LOWER(?)", partNumber).
		Order("created_at ASC, id ASC").Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("part: find %s: %w", partNumber, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("part: %s: %w", partNumber, ErrNotFound)
	}
	for i := range parts {
		if parts[i].Status == models.PartPending || parts[i].Status == models.PartCut {
			return &parts[i], nil
		}
	}
	return &parts[0], nil
}

// List returns parts matching the given filters, ordered by part number.
func List(db *gorm.DB, filters ListFilters) ([]models.Part, error) {
	q := db.Model(&models.Part{})
	if filters.ProductID != "" {
		q = q.Where("product_id = ?", filters.ProductID)
	}
	if filters.WorkOrderID != "" {
		q = q.Where("product_id IN (?)",
			db.Model(&models.Product{}).Select("id").Where("work_order_id = ?", filters.WorkOrderID))
	}
	if len(filters.Statuses) > 0 {
		q = q.Where("status IN ?", filters.Statuses)
	}

	var parts []models.Part
	if err := q.Order("part_number ASC, id ASC").Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("part: list: %w", err)
	}
	return parts, nil
}

// History returns the scan activity of a part, oldest first.
func History(db *gorm.DB, partID string) ([]models.ScanActivity, error) {
	var scans []models.ScanActivity
	if err := db.Where("part_id = ?", partID).Order("scanned_at ASC, id ASC").Find(&scans).Error; err != nil {
		return nil, fmt.Errorf("part: history %s: %w", partID, err)
	}
	return scans, nil
}
