package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/shopfloor/internal/assembly"
	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/notify"
	"github.com/zulandar/shopfloor/internal/rack"
	"gorm.io/gorm"
)

// RackOccupancy is one rack on the sorting dashboard.
type RackOccupancy struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Occupied int    `json:"occupied"`
	Total    int    `json:"total"`
}

// QueuedPart is a part waiting to be sorted or sitting in a rack.
type QueuedPart struct {
	PartID        string  `json:"partId"`
	PartNumber    string  `json:"partNumber"`
	Status        string  `json:"status"`
	Row           *int    `json:"row"`
	Col           *int    `json:"col"`
	RackName      *string `json:"rackName"`
	RackID        *uint   `json:"rackId"`
	WorkOrder     string  `json:"workOrder"`
	ProductNumber string  `json:"productNumber"`
}

// SortingSummary is the sorting dashboard projection.
type SortingSummary struct {
	RackOccupancy []RackOccupancy `json:"rackOccupancy"`
	Parts         []QueuedPart    `json:"parts"`
}

// AssemblyPart is one part of a product on the assembly dashboard.
type AssemblyPart struct {
	PartID     string  `json:"partId"`
	PartNumber string  `json:"partNumber"`
	PartName   string  `json:"partName"`
	Status     string  `json:"status"`
	RackName   *string `json:"rackName"`
	Row        *int    `json:"row"`
	Col        *int    `json:"col"`
}

// AssemblyProduct is one product on the assembly dashboard.
type AssemblyProduct struct {
	ProductID       string         `json:"productId"`
	ProductNumber   string         `json:"productNumber"`
	ProductName     string         `json:"productName"`
	WorkOrderNumber string         `json:"workOrderNumber"`
	CustomerName    string         `json:"customerName"`
	Status          string         `json:"status"`
	TotalParts      int            `json:"totalParts"`
	SortedParts     int            `json:"sortedParts"`
	AssembledParts  int            `json:"assembledParts"`
	IsReady         bool           `json:"isReady"`
	Parts           []AssemblyPart `json:"parts"`
}

// AssemblySummary is the assembly dashboard projection.
type AssemblySummary struct {
	Products []AssemblyProduct `json:"products"`
}

// GetSortingSummary returns rack occupancy and every part that is waiting
// to be sorted or currently stored.
func (t *Tracker) GetSortingSummary(ctx context.Context) (*SortingSummary, error) {
	db := t.db.WithContext(ctx)
	usage, err := rack.List(db, false)
	if err != nil {
		return nil, err
	}
	out := &SortingSummary{
		RackOccupancy: make([]RackOccupancy, 0, len(usage)),
		Parts:         []QueuedPart{},
	}
	for _, u := range usage {
		out.RackOccupancy = append(out.RackOccupancy, RackOccupancy{
			ID:       u.Rack.ID,
			Name:     u.Rack.Name,
			Occupied: u.Occupied,
			Total:    u.Rack.Capacity(),
		})
	}

	var parts []models.Part
	if err := db.Preload("Product.WorkOrder").Preload("StorageRack").
		Where("status IN ?", []string{models.PartPending, models.PartCut, models.PartSorted}).
		Order("part_number ASC, id ASC").Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("tracker: sorting queue: %w", err)
	}
	for _, p := range parts {
		q := QueuedPart{
			PartID:     p.ID,
			PartNumber: p.PartNumber,
			Status:     p.Status,
			Row:        p.StorageRow,
			Col:        p.StorageColumn,
			RackID:     p.StorageRackID,
		}
		if p.StorageRack != nil {
			name := p.StorageRack.Name
			q.RackName = &name
		}
		if p.Product != nil {
			q.ProductNumber = p.Product.ProductNumber
			if p.Product.WorkOrder != nil {
				q.WorkOrder = p.Product.WorkOrder.WorkOrderNumber
			}
		}
		out.Parts = append(out.Parts, q)
	}
	return out, nil
}

// GetAssemblySummary returns every product not yet assembled or shipped with
// its parts and readiness.
func (t *Tracker) GetAssemblySummary(ctx context.Context) (*AssemblySummary, error) {
	db := t.db.WithContext(ctx)
	var products []models.Product
	if err := db.Preload("WorkOrder").
		Preload("Parts", func(db *gorm.DB) *gorm.DB { return db.Order("part_number ASC, id ASC") }).
		Preload("Parts.StorageRack").
		Where("status NOT IN ?", []string{models.ProductComplete, models.ProductShipped}).
		Order("product_number ASC, id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("tracker: assembly summary: %w", err)
	}

	out := &AssemblySummary{Products: make([]AssemblyProduct, 0, len(products))}
	for _, p := range products {
		r := assembly.Evaluate(p.ID, p.Parts)
		ap := AssemblyProduct{
			ProductID:     p.ID,
			ProductNumber: p.ProductNumber,
			ProductName:   p.ProductName,
			Status:        p.Status,
			TotalParts:    r.TotalCount,
			SortedParts:   r.SortedCount,
			IsReady:       r.IsReady,
			Parts:         make([]AssemblyPart, 0, len(p.Parts)),
		}
		if p.WorkOrder != nil {
			ap.WorkOrderNumber = p.WorkOrder.WorkOrderNumber
			ap.CustomerName = p.WorkOrder.CustomerName
		}
		for _, pt := range p.Parts {
			if pt.Status == models.PartAssembled {
				ap.AssembledParts++
			}
			item := AssemblyPart{
				PartID:     pt.ID,
				PartNumber: pt.PartNumber,
				PartName:   pt.PartName,
				Status:     pt.Status,
				Row:        pt.StorageRow,
				Col:        pt.StorageColumn,
			}
			if pt.StorageRack != nil {
				name := pt.StorageRack.Name
				item.RackName = &name
			}
			ap.Parts = append(ap.Parts, item)
		}
		out.Products = append(out.Products, ap)
	}
	return out, nil
}

// Digest summarizes the scans of the last 24 hours.
func (t *Tracker) Digest(ctx context.Context) (notify.Event, error) {
	db := t.db.WithContext(ctx)
	now := time.Now()
	since := now.Add(-24 * time.Hour)

	type row struct {
		NewStatus string
		Count     int
	}
	var rows []row
	if err := db.Model(&models.ScanActivity{}).
		Select("new_status, COUNT(*) as count").
		Where("scanned_at >= ?", since).
		Group("new_status").Find(&rows).Error; err != nil {
		return notify.Event{}, fmt.Errorf("tracker: digest scans: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.NewStatus] = r.Count
	}

	var active int64
	if err := db.Model(&models.WorkOrder{}).Where("status = ?", models.WorkOrderActive).Count(&active).Error; err != nil {
		return notify.Event{}, fmt.Errorf("tracker: digest work orders: %w", err)
	}

	var lines []string
	statuses := []string{models.PartCut, models.PartSorted, models.PartAssembled, models.PartShipped}
	for _, s := range statuses {
		lines = append(lines, fmt.Sprintf("%s: %d", strings.ToLower(s), counts[s]))
	}
	text := fmt.Sprintf("Last 24h parts %s. %d active work orders.", strings.Join(lines, ", "), active)
	return notify.Event{Kind: notify.KindDigest, Text: text, Count: int(active), At: now}, nil
}
