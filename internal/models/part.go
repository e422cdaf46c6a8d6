package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Part is a single physical cut piece belonging to a product.
type Part struct {
	ID            string              `gorm:"primaryKey;size:50"`
	ProductID     string              `gorm:"size:50;not null;index"`
	SubassemblyID *string             `gorm:"size:50;index"`
	PartNumber    string              `gorm:"size:100;not null;index"`
	PartName      string              `gorm:"size:200"`
	Material      string              `gorm:"size:100"`
	Thickness     decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	Length        decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	Width         decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	EdgeBanding   string              `gorm:"size:200"`
	Status        string              `gorm:"size:20;default:Pending;index"`

	// Storage location. Set only through the sorting path.
	StorageRackID *uint `gorm:"index:idx_part_slot"`
	StorageRow    *int  `gorm:"index:idx_part_slot"`
	StorageColumn *int  `gorm:"index:idx_part_slot"`

	SortedAt    *time.Time
	AssembledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Product     *Product     `gorm:"foreignKey:ProductID"`
	StorageRack *StorageRack `gorm:"foreignKey:StorageRackID"`
}

// HasLocation reports whether all three storage coordinates are set.
func (p *Part) HasLocation() bool {
	return p.StorageRackID != nil && p.StorageRow != nil && p.StorageColumn != nil
}

// Location returns the part's storage slot, or the zero Slot if unset.
func (p *Part) Location() Slot {
	if !p.HasLocation() {
		return Slot{}
	}
	return Slot{RackID: *p.StorageRackID, Row: *p.StorageRow, Column: *p.StorageColumn}
}

// Slot is one (row, column) cell of a storage rack. Rows and columns are 1-based.
type Slot struct {
	RackID uint
	Row    int
	Column int
}

// IsZero reports whether s is unset.
func (s Slot) IsZero() bool {
	return s.RackID == 0 && s.Row == 0 && s.Column == 0
}

// String renders the slot the way it is written into scan activity records.
func (s Slot) String() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("rack %d R%dC%d", s.RackID, s.Row, s.Column)
}
