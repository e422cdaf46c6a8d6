// Package catalog manages work orders, products and subassemblies entered
// by hand at the admin station.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/rollup"
	"gorm.io/gorm"
)

var (
	// ErrWorkOrderNotFound is returned when no work order matches a lookup.
	ErrWorkOrderNotFound = errors.New("work order not found")
	// ErrProductNotFound is returned when a referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrClosed is returned when adding to a work order or product that is
	// already complete or shipped.
	ErrClosed = errors.New("already complete")
)

// WorkOrderOpts holds parameters for creating a work order.
type WorkOrderOpts struct {
	Number     string
	Customer   string
	ImportedBy string
	OrderDate  *time.Time
	DueDate    *time.Time
}

// ProductOpts holds parameters for creating a product.
type ProductOpts struct {
	WorkOrderID string
	Number      string
	Name        string
	Type        string
}

// SubassemblyOpts holds parameters for creating a subassembly.
type SubassemblyOpts struct {
	ProductID string
	Number    string
	Name      string
}

// GenerateID returns a new identifier of the form <prefix>-xxxxxxxx.
func GenerateID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// generateUniqueID generates an ID for model and retries once on collision.
func generateUniqueID(db *gorm.DB, model interface{}, prefix string) (string, error) {
	for range 2 {
		id := GenerateID(prefix)
		var count int64
		if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("catalog: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("catalog: failed to generate unique %s ID after retries", prefix)
}

// CreateWorkOrder creates an Active work order.
func CreateWorkOrder(db *gorm.DB, opts WorkOrderOpts) (*models.WorkOrder, error) {
	opts.Number = strings.TrimSpace(opts.Number)
	if opts.Number == "" {
		return nil, fmt.Errorf("catalog: work order number is required")
	}
	id, err := generateUniqueID(db, &models.WorkOrder{}, "wo")
	if err != nil {
		return nil, err
	}
	wo := models.WorkOrder{
		ID:              id,
		WorkOrderNumber: opts.Number,
		CustomerName:    opts.Customer,
		Status:          models.WorkOrderActive,
		ImportedBy:      opts.ImportedBy,
		OrderDate:       opts.OrderDate,
		DueDate:         opts.DueDate,
	}
	if err := db.Create(&wo).Error; err != nil {
		return nil, fmt.Errorf("catalog: create work order: %w", err)
	}
	return &wo, nil
}

// CreateProduct adds a Pending product to an open work order and refreshes
// the work order's counters in the same transaction.
func CreateProduct(db *gorm.DB, opts ProductOpts) (*models.Product, error) {
	opts.Number = strings.TrimSpace(opts.Number)
	if opts.Number == "" {
		return nil, fmt.Errorf("catalog: product number is required")
	}
	if opts.WorkOrderID == "" {
		return nil, fmt.Errorf("catalog: work order is required")
	}

	var product models.Product
	err := db.Transaction(func(tx *gorm.DB) error {
		wo, err := GetWorkOrder(tx, opts.WorkOrderID)
		if err != nil {
			return err
		}
		if wo.Status != models.WorkOrderActive {
			return fmt.Errorf("catalog: work order %s is %s: %w", wo.WorkOrderNumber, wo.Status, ErrClosed)
		}
		id, err := generateUniqueID(tx, &models.Product{}, "prd")
		if err != nil {
			return err
		}
		product = models.Product{
			ID:            id,
			WorkOrderID:   wo.ID,
			ProductNumber: opts.Number,
			ProductName:   opts.Name,
			ProductType:   opts.Type,
			Status:        models.ProductPending,
		}
		if err := tx.Create(&product).Error; err != nil {
			return fmt.Errorf("catalog: create product: %w", err)
		}
		return rollup.RefreshWorkOrder(tx, wo.ID)
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateSubassembly adds a subassembly to a product.
func CreateSubassembly(db *gorm.DB, opts SubassemblyOpts) (*models.Subassembly, error) {
	opts.Number = strings.TrimSpace(opts.Number)
	if opts.Number == "" {
		return nil, fmt.Errorf("catalog: subassembly number is required")
	}
	var product models.Product
	if err := db.Where("id = ?", opts.ProductID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("catalog: %s: %w", opts.ProductID, ErrProductNotFound)
		}
		return nil, fmt.Errorf("catalog: get product %s: %w", opts.ProductID, err)
	}
	id, err := generateUniqueID(db, &models.Subassembly{}, "sub")
	if err != nil {
		return nil, err
	}
	sub := models.Subassembly{
		ID:                id,
		ProductID:         product.ID,
		SubassemblyNumber: opts.Number,
		SubassemblyName:   opts.Name,
		Status:            models.ProductPending,
	}
	if err := db.Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("catalog: create subassembly: %w", err)
	}
	return &sub, nil
}

// GetWorkOrder retrieves a work order by ID or, failing that, by number.
func GetWorkOrder(db *gorm.DB, idOrNumber string) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	result := db.Where("id = ?", idOrNumber).Limit(1).Find(&wo)
	if result.Error != nil {
		return nil, fmt.Errorf("catalog: get work order %s: %w", idOrNumber, result.Error)
	}
	if result.RowsAffected == 0 {
		result = db.Where("work_order_number = ?", idOrNumber).Order("created_at DESC").Limit(1).Find(&wo)
		if result.Error != nil {
			return nil, fmt.Errorf("catalog: get work order %s: %w", idOrNumber, result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, fmt.Errorf("catalog: %s: %w", idOrNumber, ErrWorkOrderNotFound)
		}
	}
	return &wo, nil
}

// LoadWorkOrder retrieves a work order with its products and their parts.
func LoadWorkOrder(db *gorm.DB, idOrNumber string) (*models.WorkOrder, error) {
	wo, err := GetWorkOrder(db, idOrNumber)
	if err != nil {
		return nil, err
	}
	if err := db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_number ASC")
	}).Preload("Products.Parts", func(db *gorm.DB) *gorm.DB {
		return db.Order("part_number ASC")
	}).Where("id = ?", wo.ID).First(wo).Error; err != nil {
		return nil, fmt.Errorf("catalog: load work order %s: %w", wo.ID, err)
	}
	return wo, nil
}

// ListWorkOrders returns work orders, newest first, optionally filtered by status.
func ListWorkOrders(db *gorm.DB, status string) ([]models.WorkOrder, error) {
	q := db.Model(&models.WorkOrder{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.WorkOrder
	if err := q.Order("created_at DESC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("catalog: list work orders: %w", err)
	}
	return out, nil
}
