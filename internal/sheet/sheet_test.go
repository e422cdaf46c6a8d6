package sheet

import (
	"errors"
	"testing"

	"github.com/zulandar/shopfloor/internal/models"
	"github.com/zulandar/shopfloor/internal/part"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.Part{},
		&models.PlacedSheet{},
		&models.PartPlacement{},
		&models.ScanActivity{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedSheet creates a sheet with one placed part per status given.
func seedSheet(t *testing.T, db *gorm.DB, barcode string, statuses ...string) *models.PlacedSheet {
	t.Helper()
	s, err := Create(db, CreateOpts{Name: "Sheet " + barcode, Barcode: barcode, MaterialType: "3/4 Maple Ply"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i, status := range statuses {
		p := models.Part{
			ID:         barcode + "-" + string(rune('A'+i)),
			ProductID:  "prd-1",
			PartNumber: "P" + string(rune('A'+i)),
			Status:     status,
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed part: %v", err)
		}
		if _, err := Place(db, PlaceOpts{SheetID: s.ID, PartID: p.ID}); err != nil {
			t.Fatalf("Place: %v", err)
		}
	}
	return s
}

func scan(db *gorm.DB, barcode string) (*CutResult, error) {
	var res *CutResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = ProcessScan(tx, barcode, part.TransitionOpts{Station: "CNC-1"})
		return err
	})
	return res, err
}

func TestProcessScan_CutsEveryPart(t *testing.T) {
	db := testDB(t)
	seedSheet(t, db, "BC-100", models.PartPending, models.PartPending, models.PartPending)

	res, err := scan(db, "BC-100")
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}
	if res.PartsProcessed != 3 || len(res.Events) != 3 {
		t.Errorf("PartsProcessed = %d, events = %d, want 3", res.PartsProcessed, len(res.Events))
	}
	if res.SheetName != "Sheet BC-100" {
		t.Errorf("SheetName = %q", res.SheetName)
	}

	var cut int64
	db.Model(&models.Part{}).Where("status = ?", models.PartCut).Count(&cut)
	if cut != 3 {
		t.Errorf("cut parts = %d, want 3", cut)
	}
	var scans int64
	db.Model(&models.ScanActivity{}).Where("station_name = ?", "CNC-1").Count(&scans)
	if scans != 3 {
		t.Errorf("scan records = %d, want 3", scans)
	}
	s, _ := FindByBarcode(db, "BC-100")
	if s.Status != models.SheetCut || s.CutAt == nil {
		t.Errorf("sheet = %+v, want Cut with CutAt", s)
	}
}

func TestProcessScan_RescanIsRejected(t *testing.T) {
	db := testDB(t)
	seedSheet(t, db, "BC-100", models.PartPending)
	if _, err := scan(db, "BC-100"); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	if _, err := scan(db, "BC-100"); !errors.Is(err, ErrAlreadyCut) {
		t.Fatalf("err = %v, want ErrAlreadyCut", err)
	}
	var scans int64
	db.Model(&models.ScanActivity{}).Count(&scans)
	if scans != 1 {
		t.Errorf("scan records = %d, want 1", scans)
	}
}

func TestProcessScan_SkipsPartsPastCut(t *testing.T) {
	db := testDB(t)
	seedSheet(t, db, "BC-200", models.PartPending, models.PartCut, models.PartSorted)

	res, err := scan(db, "BC-200")
	if err != nil {
		t.Fatalf("ProcessScan: %v", err)
	}
	if res.PartsProcessed != 1 {
		t.Errorf("PartsProcessed = %d, want 1", res.PartsProcessed)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("Skipped = %v, want 2 parts", res.Skipped)
	}
	p, _ := part.Get(db, "BC-200-C")
	if p.Status != models.PartSorted {
		t.Errorf("sorted part moved to %q", p.Status)
	}
}

func TestProcessScan_Errors(t *testing.T) {
	db := testDB(t)
	seedSheet(t, db, "BC-EMPTY")

	if _, err := scan(db, "BC-404"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("err = %v, want ErrSheetNotFound", err)
	}
	if _, err := scan(db, "BC-EMPTY"); !errors.Is(err, ErrNoPartsOnSheet) {
		t.Errorf("err = %v, want ErrNoPartsOnSheet", err)
	}
	s, _ := FindByBarcode(db, "BC-EMPTY")
	if s.Status != models.SheetPending {
		t.Errorf("empty sheet Status = %q, want Pending", s.Status)
	}
}

func TestCreate_DuplicateBarcode(t *testing.T) {
	db := testDB(t)
	if _, err := Create(db, CreateOpts{Barcode: "BC-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Create(db, CreateOpts{Barcode: "BC-1"}); err == nil {
		t.Error("expected unique barcode violation")
	}
	if _, err := Create(db, CreateOpts{Barcode: " "}); err == nil {
		t.Error("expected error for empty barcode")
	}
}

func TestPlace_Rejects(t *testing.T) {
	db := testDB(t)
	s := seedSheet(t, db, "BC-1", models.PartPending)
	db.Create(&models.Part{ID: "prt-x", ProductID: "prd-1", PartNumber: "X", Status: models.PartPending})

	if _, err := Place(db, PlaceOpts{SheetID: s.ID, PartID: "prt-missing"}); !errors.Is(err, part.ErrNotFound) {
		t.Errorf("err = %v, want part.ErrNotFound", err)
	}
	if _, err := Place(db, PlaceOpts{SheetID: "BC-404", PartID: "prt-x"}); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("err = %v, want ErrSheetNotFound", err)
	}
	if _, err := scan(db, "BC-1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, err := Place(db, PlaceOpts{SheetID: "BC-1", PartID: "prt-x"}); !errors.Is(err, ErrAlreadyCut) {
		t.Errorf("err = %v, want ErrAlreadyCut", err)
	}
}
