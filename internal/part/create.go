package part

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zulandar/shopfloor/internal/catalog"
	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/rollup"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a part.
type CreateOpts struct {
	ProductID     string
	SubassemblyID string
	Number        string
	Name          string
	Material      string
	Length        decimal.NullDecimal
	Width         decimal.NullDecimal
	Thickness     decimal.NullDecimal
	EdgeBanding   string
}

// GenerateID creates a part ID in prt-xxxxxxxx format.
func GenerateID() string {
	return "prt-" + uuid.New().String()[:8]
}

// Create adds a Pending part to a product that is not yet complete. The
// product, subassembly and work order counters are refreshed in the same
// transaction.
func Create(db *gorm.DB, opts CreateOpts) (*models.Part, error) {
	opts.Number = strings.TrimSpace(opts.Number)
	if opts.Number == "" {
		return nil, fmt.Errorf("part: part number is required")
	}

	var p models.Part
	err := db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ?", opts.ProductID).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("part: product %s: %w", opts.ProductID, catalog.ErrProductNotFound)
			}
			return fmt.Errorf("part: get product %s: %w", opts.ProductID, err)
		}
		if product.Status == models.ProductComplete || product.Status == models.ProductShipped {
			return fmt.Errorf("part: product %s is %s: %w", product.ProductNumber, product.Status, catalog.ErrClosed)
		}

		p = models.Part{
			ID:          GenerateID(),
			ProductID:   product.ID,
			PartNumber:  opts.Number,
			PartName:    opts.Name,
			Material:    opts.Material,
			Length:      opts.Length,
			Width:       opts.Width,
			Thickness:   opts.Thickness,
			EdgeBanding: opts.EdgeBanding,
			Status:      models.PartPending,
		}
		if opts.SubassemblyID != "" {
			var sub models.Subassembly
			if err := tx.Where("id = ? AND product_id = ?", opts.SubassemblyID, product.ID).First(&sub).Error; err != nil {
				return fmt.Errorf("part: subassembly %s of product %s: %w", opts.SubassemblyID, product.ProductNumber, err)
			}
			p.SubassemblyID = &sub.ID
		}

		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("part: create: %w", err)
		}
		if err := rollup.RefreshProduct(tx, product.ID); err != nil {
			return err
		}
		return rollup.RefreshWorkOrder(tx, product.WorkOrderID)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
