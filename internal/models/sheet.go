package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlacedSheet is a nest sheet: one physical sheet of material holding the
// cut outlines of several parts. Barcode is the scan key at the CNC.
type PlacedSheet struct {
	ID           string              `gorm:"primaryKey;size:50"`
	WorkOrderID  string              `gorm:"size:50;index"`
	SheetName    string              `gorm:"size:100;not null"`
	Barcode      string              `gorm:"size:100;not null;uniqueIndex"`
	FileName     string              `gorm:"size:255"`
	MaterialType string              `gorm:"size:100"`
	Length       decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	Width        decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	Thickness    decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	Status       string              `gorm:"size:20;default:Pending;index"`
	CutAt        *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Placements []PartPlacement `gorm:"foreignKey:PlacedSheetID;constraint:OnDelete:CASCADE"`
}

// PartPlacement associates a part with the sheet it was nested on. Only the
// association matters for cut completion; the coordinates are carried along.
type PartPlacement struct {
	ID            string              `gorm:"primaryKey;size:36"`
	PartID        string              `gorm:"size:50;not null;index"`
	PlacedSheetID string              `gorm:"size:50;not null;index"`
	X             decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	Y             decimal.NullDecimal `gorm:"type:decimal(10,4)"`
	Rotation      int                 `gorm:"default:0"`
	Flipped       bool                `gorm:"default:false"`
	CreatedAt     time.Time

	Part *Part `gorm:"foreignKey:PartID"`
}
