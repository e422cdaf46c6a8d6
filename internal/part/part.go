// Package part provides the part lifecycle state machine and part lookups.
package part

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/shopfloor/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no part matches a lookup.
	ErrNotFound = errors.New("part not found")
	// ErrInvalidTransition is returned when a requested status change breaks
	// the lifecycle rules.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadySorted is returned when a sorted part is scanned for sorting again.
	ErrAlreadySorted = errors.New("part already sorted")
	// ErrLocationRequired is returned when a part would become Sorted
	// without a storage slot.
	ErrLocationRequired = errors.New("sorted part requires a storage location")
)

// Statuses lists part statuses in canonical forward order.
var Statuses = []string{
	models.PartPending,
	models.PartCut,
	models.PartSorted,
	models.PartAssembled,
	models.PartShipped,
}

// ValidTransitions maps each status to its valid next statuses. Pending may
// go straight to Sorted for parts that bypass CNC tracking.
var ValidTransitions = map[string][]string{
	models.PartPending:   {models.PartCut, models.PartSorted},
	models.PartCut:       {models.PartSorted},
	models.PartSorted:    {models.PartAssembled},
	models.PartAssembled: {models.PartShipped},
}

// batchOnly holds the statuses reachable only through product-level operations.
var batchOnly = map[string]bool{
	models.PartAssembled: true,
	models.PartShipped:   true,
}

// Rank returns the position of status in the forward order, or -1 if unknown.
func Rank(status string) int {
	for i, s := range Statuses {
		if s == status {
			return i
		}
	}
	return -1
}

// IsValidTransition checks whether a status transition is allowed.
func IsValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// Event describes one applied part transition, for audit and broadcast.
type Event struct {
	PartID     string
	PartNumber string
	ProductID  string
	OldStatus  string
	NewStatus  string
	Location   models.Slot
	Station    string
	At         time.Time
}

// TransitionOpts carries the context of a transition request.
type TransitionOpts struct {
	Station  string
	Activity string
	Operator string
	Location models.Slot // required when moving to Sorted
	Batch    bool        // set by product-level operations (assembly, shipping)
}

// Check validates a transition of p to status to without applying it.
func Check(p *models.Part, to string, opts TransitionOpts) error {
	if err := CheckStatus(p, to, opts.Batch); err != nil {
		return err
	}
	if to == models.PartSorted && opts.Location.IsZero() {
		return fmt.Errorf("part: %s: %w", p.PartNumber, ErrLocationRequired)
	}
	return nil
}

// CheckStatus validates only the status change of p to to, so callers can
// reject a scan before choosing a storage slot.
func CheckStatus(p *models.Part, to string, batch bool) error {
	from := p.Status
	if Rank(to) < 0 {
		return fmt.Errorf("part: %s: unknown status %q: %w", p.PartNumber, to, ErrInvalidTransition)
	}
	if batchOnly[to] && !batch {
		return fmt.Errorf("part: %s: %s is only reachable through a product-level operation: %w", p.PartNumber, to, ErrInvalidTransition)
	}
	if from == models.PartSorted && to == models.PartSorted {
		return fmt.Errorf("part: %s: %w", p.PartNumber, ErrAlreadySorted)
	}
	if !IsValidTransition(from, to) {
		return fmt.Errorf("part: %s: cannot move from %q to %q; valid transitions: %v: %w",
			p.PartNumber, from, to, ValidTransitions[from], ErrInvalidTransition)
	}
	return nil
}

// Transition moves p to status to inside tx, stamps the matching timestamp,
// appends one ScanActivity record and updates p in place. The update is
// guarded on the status p was read with, so a concurrent transition of the
// same part fails instead of applying twice.
func Transition(tx *gorm.DB, p *models.Part, to string, opts TransitionOpts) (Event, error) {
	if err := Check(p, to, opts); err != nil {
		return Event{}, err
	}

	from := p.Status
	now := time.Now()
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	switch to {
	case models.PartSorted:
		updates["storage_rack_id"] = opts.Location.RackID
		updates["storage_row"] = opts.Location.Row
		updates["storage_column"] = opts.Location.Column
		updates["sorted_at"] = now
	case models.PartAssembled:
		updates["assembled_at"] = now
	}

	result := tx.Model(&models.Part{}).Where("id = ? AND status = ?", p.ID, from).Updates(updates)
	if result.Error != nil {
		return Event{}, fmt.Errorf("part: update %s: %w", p.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return Event{}, fmt.Errorf("part: %s changed status concurrently: %w", p.PartNumber, ErrInvalidTransition)
	}

	location := p.Location()
	if to == models.PartSorted {
		location = opts.Location
	}
	activity := opts.Activity
	if activity == "" {
		activity = "Part " + to
	}
	scan := models.ScanActivity{
		PartID:          p.ID,
		StationName:     opts.Station,
		Activity:        activity,
		OldStatus:       from,
		NewStatus:       to,
		StorageLocation: location.String(),
		OperatorID:      opts.Operator,
		ScannedAt:       now,
	}
	if err := tx.Create(&scan).Error; err != nil {
		return Event{}, fmt.Errorf("part: record scan for %s: %w", p.ID, err)
	}

	p.Status = to
	p.UpdatedAt = now
	switch to {
	case models.PartSorted:
		rackID, row, col := location.RackID, location.Row, location.Column
		p.StorageRackID, p.StorageRow, p.StorageColumn = &rackID, &row, &col
		p.SortedAt = &now
	case models.PartAssembled:
		p.AssembledAt = &now
	}

	return Event{
		PartID:     p.ID,
		PartNumber: p.PartNumber,
		ProductID:  p.ProductID,
		OldStatus:  from,
		NewStatus:  to,
		Location:   location,
		Station:    opts.Station,
		At:         now,
	}, nil
}
