// Package rack assigns storage slots to sorted parts and manages the rack
// inventory.
package rack

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zulandar/shopfloor/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNoSlotAvailable is returned when every active rack is full.
	ErrNoSlotAvailable = errors.New("no storage slot available")
	// ErrNotFound is returned when no rack matches a lookup.
	ErrNotFound = errors.New("rack not found")
	// ErrInUse is returned when a rack holding sorted parts would be resized.
	ErrInUse = errors.New("rack holds sorted parts")
)

// Occupancy is a snapshot of the active racks and the slots currently held
// by Sorted parts.
type Occupancy struct {
	// Racks are the active racks in ascending id order.
	Racks []models.StorageRack
	// Held maps each occupied slot to the product of the part in it.
	Held map[models.Slot]string
}

// NewOccupancy builds a snapshot from racks and the sorted parts holding
// slots. Inactive racks are dropped and the rest ordered by id.
func NewOccupancy(racks []models.StorageRack, sorted []models.Part) *Occupancy {
	occ := &Occupancy{Held: make(map[models.Slot]string, len(sorted))}
	for _, r := range racks {
		if r.Active {
			occ.Racks = append(occ.Racks, r)
		}
	}
	sort.Slice(occ.Racks, func(i, j int) bool { return occ.Racks[i].ID < occ.Racks[j].ID })
	for i := range sorted {
		if sorted[i].Status != models.PartSorted || !sorted[i].HasLocation() {
			continue
		}
		occ.Held[sorted[i].Location()] = sorted[i].ProductID
	}
	return occ
}

// LoadOccupancy reads the current occupancy of every active rack.
func LoadOccupancy(db *gorm.DB) (*Occupancy, error) {
	return loadOccupancy(db, false)
}

// LockOccupancy reads the occupancy inside a sort transaction, locking the
// active rack rows and the sorted parts in them. A sort scan in another
// process that allocates from the same racks waits until tx commits and then
// sees the slot it took.
func LockOccupancy(tx *gorm.DB) (*Occupancy, error) {
	return loadOccupancy(tx, true)
}

func loadOccupancy(db *gorm.DB, lock bool) (*Occupancy, error) {
	q := db
	if lock {
		q = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var racks []models.StorageRack
	if err := q.Where("active = ?", true).Order("id ASC").Find(&racks).Error; err != nil {
		return nil, fmt.Errorf("rack: load racks: %w", err)
	}
	q = db
	if lock {
		q = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var sorted []models.Part
	if err := q.Select("id", "product_id", "status", "storage_rack_id", "storage_row", "storage_column").
		Where("status = ? AND storage_rack_id IS NOT NULL", models.PartSorted).
		Find(&sorted).Error; err != nil {
		return nil, fmt.Errorf("rack: load occupancy: %w", err)
	}
	return NewOccupancy(racks, sorted), nil
}

// IsEmpty reports whether no Sorted part holds slot.
func (o *Occupancy) IsEmpty(slot models.Slot) bool {
	_, held := o.Held[slot]
	return !held
}

// hold records slot as taken by productID.
func (o *Occupancy) hold(slot models.Slot, productID string) {
	o.Held[slot] = productID
}

// Occupied returns the number of held slots inside the bounds of r.
func (o *Occupancy) Occupied(r models.StorageRack) int {
	n := 0
	for slot := range o.Held {
		if slot.RackID == r.ID && slot.Row >= 1 && slot.Row <= r.Rows &&
			slot.Column >= 1 && slot.Column <= r.Columns {
			n++
		}
	}
	return n
}

// FindSlot picks the slot for the next sorted part of productID. Racks that
// already hold a Sorted part of the same product are tried first; if none
// has room, every active rack is tried. Racks are visited in ascending id
// order and cells row by row, column by column.
func FindSlot(occ *Occupancy, productID string) (models.Slot, error) {
	affinity := make(map[uint]bool)
	for slot, owner := range occ.Held {
		if owner == productID {
			affinity[slot.RackID] = true
		}
	}

	for _, r := range occ.Racks {
		if !affinity[r.ID] {
			continue
		}
		if slot, ok := firstEmpty(occ, r); ok {
			return slot, nil
		}
	}
	for _, r := range occ.Racks {
		if slot, ok := firstEmpty(occ, r); ok {
			return slot, nil
		}
	}
	return models.Slot{}, ErrNoSlotAvailable
}

func firstEmpty(occ *Occupancy, r models.StorageRack) (models.Slot, bool) {
	for row := 1; row <= r.Rows; row++ {
		for col := 1; col <= r.Columns; col++ {
			slot := models.Slot{RackID: r.ID, Row: row, Column: col}
			if occ.IsEmpty(slot) {
				return slot, true
			}
		}
	}
	return models.Slot{}, false
}
