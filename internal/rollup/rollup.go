// Package rollup recomputes aggregate counts and cascades completion from
// parts up to products and work orders. Counts are always derived from the
// current part and product rows; the stored counters are refreshed inside
// the transaction that changed them.
package rollup

import (
	"fmt"
	"time"

	"github.com/zulandar/shopfloor/internal/models"
	"gorm.io/gorm"
)

// StatusCount holds a status and its count.
type StatusCount struct {
	Status string
	Count  int
}

// WorkOrderSummary holds the recomputed counts for one work order.
type WorkOrderSummary struct {
	WorkOrderID      string
	WorkOrderNumber  string
	Status           string
	TotalProducts    int
	TotalParts       int
	PartsByStatus    map[string]int
	ProductsByStatus map[string]int
}

// PartStatusCounts returns part counts grouped by status. An empty
// workOrderID counts every part.
func PartStatusCounts(db *gorm.DB, workOrderID string) ([]StatusCount, error) {
	q := db.Model(&models.Part{}).Select("status, COUNT(*) as count")
	if workOrderID != "" {
		q = q.Where("product_id IN (?)",
			db.Model(&models.Product{}).Select("id").Where("work_order_id = ?", workOrderID))
	}
	var results []StatusCount
	if err := q.Group("status").Order("status ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("rollup: part status counts: %w", err)
	}
	return results, nil
}

// ProductStatusCounts returns product counts grouped by status.
func ProductStatusCounts(db *gorm.DB, workOrderID string) ([]StatusCount, error) {
	q := db.Model(&models.Product{}).Select("status, COUNT(*) as count")
	if workOrderID != "" {
		q = q.Where("work_order_id = ?", workOrderID)
	}
	var results []StatusCount
	if err := q.Group("status").Order("status ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("rollup: product status counts: %w", err)
	}
	return results, nil
}

// Summarize recomputes the counts of one work order.
func Summarize(db *gorm.DB, workOrderID string) (*WorkOrderSummary, error) {
	var wo models.WorkOrder
	if err := db.Where("id = ?", workOrderID).First(&wo).Error; err != nil {
		return nil, fmt.Errorf("rollup: work order %s: %w", workOrderID, err)
	}
	parts, err := PartStatusCounts(db, workOrderID)
	if err != nil {
		return nil, err
	}
	products, err := ProductStatusCounts(db, workOrderID)
	if err != nil {
		return nil, err
	}

	s := &WorkOrderSummary{
		WorkOrderID:      wo.ID,
		WorkOrderNumber:  wo.WorkOrderNumber,
		Status:           wo.Status,
		PartsByStatus:    make(map[string]int),
		ProductsByStatus: make(map[string]int),
	}
	for _, c := range parts {
		s.PartsByStatus[c.Status] = c.Count
		s.TotalParts += c.Count
	}
	for _, c := range products {
		s.ProductsByStatus[c.Status] = c.Count
		s.TotalProducts += c.Count
	}
	return s, nil
}

// RefreshProduct rewrites the stored part counters of a product and its
// subassemblies from the current part rows.
func RefreshProduct(tx *gorm.DB, productID string) error {
	var total int64
	if err := tx.Model(&models.Part{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		return fmt.Errorf("rollup: count parts of %s: %w", productID, err)
	}
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).
		Update("total_parts", total).Error; err != nil {
		return fmt.Errorf("rollup: update product %s: %w", productID, err)
	}

	var subs []models.Subassembly
	if err := tx.Where("product_id = ?", productID).Find(&subs).Error; err != nil {
		return fmt.Errorf("rollup: subassemblies of %s: %w", productID, err)
	}
	for _, s := range subs {
		var n int64
		if err := tx.Model(&models.Part{}).Where("subassembly_id = ?", s.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("rollup: count parts of subassembly %s: %w", s.ID, err)
		}
		if err := tx.Model(&models.Subassembly{}).Where("id = ?", s.ID).
			Update("total_parts", n).Error; err != nil {
			return fmt.Errorf("rollup: update subassembly %s: %w", s.ID, err)
		}
	}
	return nil
}

// RefreshWorkOrder rewrites the stored product and part counters of a work order.
func RefreshWorkOrder(tx *gorm.DB, workOrderID string) error {
	var products, parts int64
	if err := tx.Model(&models.Product{}).Where("work_order_id = ?", workOrderID).
		Count(&products).Error; err != nil {
		return fmt.Errorf("rollup: count products of %s: %w", workOrderID, err)
	}
	if err := tx.Model(&models.Part{}).Where("product_id IN (?)",
		tx.Model(&models.Product{}).Select("id").Where("work_order_id = ?", workOrderID)).
		Count(&parts).Error; err != nil {
		return fmt.Errorf("rollup: count parts of %s: %w", workOrderID, err)
	}
	if err := tx.Model(&models.WorkOrder{}).Where("id = ?", workOrderID).Updates(map[string]interface{}{
		"total_products": products,
		"total_parts":    parts,
	}).Error; err != nil {
		return fmt.Errorf("rollup: update work order %s: %w", workOrderID, err)
	}
	return nil
}

// Cascade propagates part progress up the hierarchy after part transitions:
// a Pending product with any part past Pending becomes InProgress, and the
// owning work order becomes Complete (or Shipped) once all of its products
// are. It never marks a product Complete; assembly does that.
func Cascade(tx *gorm.DB, productID string) error {
	var product models.Product
	if err := tx.Where("id = ?", productID).First(&product).Error; err != nil {
		return fmt.Errorf("rollup: product %s: %w", productID, err)
	}

	if product.Status == models.ProductPending {
		var started int64
		if err := tx.Model(&models.Part{}).
			Where("product_id = ? AND status != ?", productID, models.PartPending).
			Count(&started).Error; err != nil {
			return fmt.Errorf("rollup: started parts of %s: %w", productID, err)
		}
		if started > 0 {
			if err := tx.Model(&models.Product{}).Where("id = ? AND status = ?", productID, models.ProductPending).
				Updates(map[string]interface{}{
					"status":     models.ProductInProgress,
					"updated_at": time.Now(),
				}).Error; err != nil {
				return fmt.Errorf("rollup: start product %s: %w", productID, err)
			}
		}
	}

	return cascadeWorkOrder(tx, product.WorkOrderID)
}

func cascadeWorkOrder(tx *gorm.DB, workOrderID string) error {
	counts, err := ProductStatusCounts(tx, workOrderID)
	if err != nil {
		return err
	}
	total, complete, shipped := 0, 0, 0
	for _, c := range counts {
		total += c.Count
		switch c.Status {
		case models.ProductComplete:
			complete += c.Count
		case models.ProductShipped:
			shipped += c.Count
		}
	}
	if total == 0 {
		return nil
	}

	status := models.WorkOrderActive
	switch {
	case shipped == total:
		status = models.WorkOrderShipped
	case complete+shipped == total:
		status = models.WorkOrderComplete
	}
	if err := tx.Model(&models.WorkOrder{}).Where("id = ?", workOrderID).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("rollup: update work order %s status: %w", workOrderID, err)
	}
	return nil
}
