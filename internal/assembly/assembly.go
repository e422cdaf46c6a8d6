// Package assembly evaluates product readiness and applies the
// product-level batch transitions (assembly and shipping).
package assembly

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/part"
	"github.com/zulandar/shopfloor/internal/rollup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrProductNotFound is returned when no product matches a lookup.
	ErrProductNotFound = errors.New("product not found")
	// ErrAlreadyComplete is returned when assembling a product that is already complete.
	ErrAlreadyComplete = errors.New("product already complete")
	// ErrNotComplete is returned when shipping a product that has not been assembled.
	ErrNotComplete = errors.New("product not complete")
	// ErrPartsNotReady matches every *PartsNotReadyError.
	ErrPartsNotReady = errors.New("parts not ready")
)

// PartsNotReadyError reports how many parts of a product are not yet Sorted.
type PartsNotReadyError struct {
	ProductNumber string
	Missing       int
	Total         int
}

func (e *PartsNotReadyError) Error() string {
	if e.Total == 0 {
		return fmt.Sprintf("assembly: product %s has no parts", e.ProductNumber)
	}
	return fmt.Sprintf("assembly: product %s: %d of %d parts not sorted", e.ProductNumber, e.Missing, e.Total)
}

// Is lets errors.Is match ErrPartsNotReady.
func (e *PartsNotReadyError) Is(target error) bool {
	return target == ErrPartsNotReady
}

// Readiness is the assembly readiness of one product.
type Readiness struct {
	ProductID   string
	IsReady     bool
	SortedCount int
	TotalCount  int
}

// Result reports the outcome of a product-level batch transition.
type Result struct {
	ProductID     string
	ProductNumber string
	WorkOrderID   string
	PartsChanged  int
	Events        []part.Event
}

// Evaluate computes readiness from a product's parts. A product without
// parts is never ready.
func Evaluate(productID string, parts []models.Part) Readiness {
	r := Readiness{ProductID: productID, TotalCount: len(parts)}
	for _, p := range parts {
		if p.Status == models.PartSorted {
			r.SortedCount++
		}
	}
	r.IsReady = r.TotalCount > 0 && r.SortedCount == r.TotalCount
	return r
}

// EvaluateReadiness reads the parts of a product and evaluates its readiness.
func EvaluateReadiness(db *gorm.DB, productID string) (Readiness, error) {
	var parts []models.Part
	if err := db.Select("id", "status").Where("product_id = ?", productID).Find(&parts).Error; err != nil {
		return Readiness{}, fmt.Errorf("assembly: parts of %s: %w", productID, err)
	}
	return Evaluate(productID, parts), nil
}

// FindProduct resolves a scanned product number (or product ID), ignoring
// case and surrounding whitespace. When several work orders share the
// number, the oldest product whose status is in prefer wins, then the oldest
// overall.
func FindProduct(db *gorm.DB, number string, prefer ...string) (*models.Product, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, fmt.Errorf("assembly: empty product number: %w", ErrProductNotFound)
	}
	var products []models.Product
	if err := db.Where("id = ? OR LOWER(product_number) = LOWER(?)", number, number).
		Order("created_at ASC, id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("assembly: find product %s: %w", number, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("assembly: %s: %w", number, ErrProductNotFound)
	}
	for i := range products {
		for _, s := range prefer {
			if products[i].Status == s {
				return &products[i], nil
			}
		}
	}
	return &products[0], nil
}

// lockProduct re-reads a product row for update.
func lockProduct(tx *gorm.DB, id string) (*models.Product, error) {
	var p models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assembly: %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("assembly: lock product %s: %w", id, err)
	}
	return &p, nil
}

func lockParts(tx *gorm.DB, productID string) ([]models.Part, error) {
	var parts []models.Part
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).Order("part_number ASC, id ASC").Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("assembly: parts of %s: %w", productID, err)
	}
	return parts, nil
}

// CompleteAssembly moves every part of the product from Sorted to Assembled
// and marks the product Complete, inside tx. Either every part changes or,
// on error, the caller rolls back and none do.
func CompleteAssembly(tx *gorm.DB, productNumber string, opts part.TransitionOpts) (*Result, error) {
	found, err := FindProduct(tx, productNumber, models.ProductPending, models.ProductInProgress)
	if err != nil {
		return nil, err
	}
	product, err := lockProduct(tx, found.ID)
	if err != nil {
		return nil, err
	}
	if product.Status == models.ProductComplete || product.Status == models.ProductShipped {
		return nil, fmt.Errorf("assembly: %s is %s: %w", product.ProductNumber, product.Status, ErrAlreadyComplete)
	}

	parts, err := lockParts(tx, product.ID)
	if err != nil {
		return nil, err
	}
	r := Evaluate(product.ID, parts)
	if !r.IsReady {
		return nil, &PartsNotReadyError{
			ProductNumber: product.ProductNumber,
			Missing:       r.TotalCount - r.SortedCount,
			Total:         r.TotalCount,
		}
	}

	opts.Batch = true
	if opts.Activity == "" {
		opts.Activity = "Product " + product.ProductNumber + " assembled"
	}
	res := &Result{ProductID: product.ID, ProductNumber: product.ProductNumber, WorkOrderID: product.WorkOrderID}
	for i := range parts {
		ev, err := part.Transition(tx, &parts[i], models.PartAssembled, opts)
		if err != nil {
			return nil, err
		}
		res.Events = append(res.Events, ev)
	}
	res.PartsChanged = len(res.Events)

	now := time.Now()
	if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"status":        models.ProductComplete,
		"assembly_date": now,
		"updated_at":    now,
	}).Error; err != nil {
		return nil, fmt.Errorf("assembly: complete product %s: %w", product.ProductNumber, err)
	}
	if err := tx.Model(&models.Subassembly{}).Where("product_id = ?", product.ID).
		Update("status", models.ProductComplete).Error; err != nil {
		return nil, fmt.Errorf("assembly: complete subassemblies of %s: %w", product.ProductNumber, err)
	}
	if err := rollup.Cascade(tx, product.ID); err != nil {
		return nil, err
	}
	return res, nil
}

// Ship moves every part of a Complete product from Assembled to Shipped and
// marks the product Shipped, inside tx.
func Ship(tx *gorm.DB, productNumber string, opts part.TransitionOpts) (*Result, error) {
	found, err := FindProduct(tx, productNumber, models.ProductComplete)
	if err != nil {
		return nil, err
	}
	product, err := lockProduct(tx, found.ID)
	if err != nil {
		return nil, err
	}
	switch product.Status {
	case models.ProductComplete:
	case models.ProductShipped:
		return nil, fmt.Errorf("assembly: %s already shipped: %w", product.ProductNumber, part.ErrInvalidTransition)
	default:
		return nil, fmt.Errorf("assembly: %s is %s: %w", product.ProductNumber, product.Status, ErrNotComplete)
	}

	parts, err := lockParts(tx, product.ID)
	if err != nil {
		return nil, err
	}
	opts.Batch = true
	if opts.Activity == "" {
		opts.Activity = "Product " + product.ProductNumber + " shipped"
	}
	res := &Result{ProductID: product.ID, ProductNumber: product.ProductNumber, WorkOrderID: product.WorkOrderID}
	for i := range parts {
		ev, err := part.Transition(tx, &parts[i], models.PartShipped, opts)
		if err != nil {
			return nil, err
		}
		res.Events = append(res.Events, ev)
	}
	res.PartsChanged = len(res.Events)

	now := time.Now()
	if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"status":       models.ProductShipped,
		"shipped_date": now,
		"updated_at":   now,
	}).Error; err != nil {
		return nil, fmt.Errorf("assembly: ship product %s: %w", product.ProductNumber, err)
	}
	if err := rollup.Cascade(tx, product.ID); err != nil {
		return nil, err
	}
	return res, nil
}
