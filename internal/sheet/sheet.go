// Package sheet records nest sheets and completes them at the CNC.
package sheet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/part"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrSheetNotFound is returned when no sheet carries the scanned barcode.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoPartsOnSheet is returned when a sheet has no part placements.
	ErrNoPartsOnSheet = errors.New("no parts on sheet")
	// ErrAlreadyCut is returned when a sheet that was already cut is scanned again.
	ErrAlreadyCut = errors.New("sheet already cut")
)

// CreateOpts holds parameters for recording a nest sheet.
type CreateOpts struct {
	WorkOrderID  string
	Name         string
	Barcode      string
	FileName     string
	MaterialType string
	Length       decimal.NullDecimal
	Width        decimal.NullDecimal
	Thickness    decimal.NullDecimal
}

// PlaceOpts holds parameters for nesting a part on a sheet.
type PlaceOpts struct {
	SheetID  string
	PartID   string
	X        decimal.NullDecimal
	Y        decimal.NullDecimal
	Rotation int
	Flipped  bool
}

// CutResult reports the outcome of a sheet scan.
type CutResult struct {
	SheetID        string
	SheetName      string
	PartsProcessed int
	Skipped        []string // part numbers already at or past Cut
	Events         []part.Event
}

// Create records a Pending nest sheet.
func Create(db *gorm.DB, opts CreateOpts) (*models.PlacedSheet, error) {
	opts.Barcode = strings.TrimSpace(opts.Barcode)
	if opts.Barcode == "" {
		return nil, fmt.Errorf("sheet: barcode is required")
	}
	if opts.Name == "" {
		opts.Name = opts.Barcode
	}
	s := models.PlacedSheet{
		ID:           "sht-" + uuid.New().String()[:8],
		WorkOrderID:  opts.WorkOrderID,
		SheetName:    opts.Name,
		Barcode:      opts.Barcode,
		FileName:     opts.FileName,
		MaterialType: opts.MaterialType,
		Length:       opts.Length,
		Width:        opts.Width,
		Thickness:    opts.Thickness,
		Status:       models.SheetPending,
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("sheet: create %s: %w", opts.Barcode, err)
	}
	return &s, nil
}

// Place nests a part on a sheet.
func Place(db *gorm.DB, opts PlaceOpts) (*models.PartPlacement, error) {
	if _, err := part.Get(db, opts.PartID); err != nil {
		return nil, err
	}
	var s models.PlacedSheet
	if err := db.Where("id = ? OR barcode = ?", opts.SheetID, opts.SheetID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sheet: %s: %w", opts.SheetID, ErrSheetNotFound)
		}
		return nil, fmt.Errorf("sheet: get %s: %w", opts.SheetID, err)
	}
	if s.Status == models.SheetCut {
		return nil, fmt.Errorf("sheet: %s: %w", s.SheetName, ErrAlreadyCut)
	}
	pl := models.PartPlacement{
		ID:            uuid.NewString(),
		PartID:        opts.PartID,
		PlacedSheetID: s.ID,
		X:             opts.X,
		Y:             opts.Y,
		Rotation:      opts.Rotation,
		Flipped:       opts.Flipped,
	}
	if err := db.Create(&pl).Error; err != nil {
		return nil, fmt.Errorf("sheet: place %s on %s: %w", opts.PartID, s.SheetName, err)
	}
	return &pl, nil
}

// FindByBarcode retrieves a sheet by its barcode.
func FindByBarcode(db *gorm.DB, barcode string) (*models.PlacedSheet, error) {
	barcode = strings.TrimSpace(barcode)
	var s models.PlacedSheet
	if err := db.Where("barcode = ?", barcode).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sheet: %q: %w", barcode, ErrSheetNotFound)
		}
		return nil, fmt.Errorf("sheet: find %q: %w", barcode, err)
	}
	return &s, nil
}

// PartsOn returns the parts placed on a sheet, ordered by part number.
func PartsOn(db *gorm.DB, sheetID string) ([]models.Part, error) {
	var parts []models.Part
	if err := db.Where("id IN (?)",
		db.Model(&models.PartPlacement{}).Select("part_id").Where("placed_sheet_id = ?", sheetID)).
		Order("part_number ASC, id ASC").Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("sheet: parts on %s: %w", sheetID, err)
	}
	return parts, nil
}

// ProcessScan completes a sheet scanned at the CNC inside tx: every Pending
// part on it moves to Cut and the sheet is marked Cut. Parts already at or
// past Cut are left alone and reported in Skipped. The caller owns the
// transaction so a failure leaves nothing mutated.
func ProcessScan(tx *gorm.DB, barcode string, opts part.TransitionOpts) (*CutResult, error) {
	barcode = strings.TrimSpace(barcode)
	var s models.PlacedSheet
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("barcode = ?", barcode).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sheet: %q: %w", barcode, ErrSheetNotFound)
		}
		return nil, fmt.Errorf("sheet: find %q: %w", barcode, err)
	}
	if s.Status == models.SheetCut {
		return nil, fmt.Errorf("sheet: %s was cut at %s: %w", s.SheetName, formatTime(s.CutAt), ErrAlreadyCut)
	}

	parts, err := PartsOn(tx, s.ID)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("sheet: %s: %w", s.SheetName, ErrNoPartsOnSheet)
	}

	if opts.Activity == "" {
		opts.Activity = "Sheet " + s.SheetName + " cut"
	}
	result := &CutResult{SheetID: s.ID, SheetName: s.SheetName}
	for i := range parts {
		p := &parts[i]
		if p.Status != models.PartPending {
			result.Skipped = append(result.Skipped, p.PartNumber)
			continue
		}
		ev, err := part.Transition(tx, p, models.PartCut, opts)
		if err != nil {
			return nil, err
		}
		result.Events = append(result.Events, ev)
	}
	result.PartsProcessed = len(result.Events)

	now := time.Now()
	res := tx.Model(&models.PlacedSheet{}).Where("id = ? AND status = ?", s.ID, models.SheetPending).
		Updates(map[string]interface{}{
			"status":     models.SheetCut,
			"cut_at":     now,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("sheet: mark %s cut: %w", s.SheetName, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("sheet: %s was cut concurrently: %w", s.SheetName, ErrAlreadyCut)
	}
	return result, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "an unknown time"
	}
	return t.Format("2006-01-02 15:04")
}
