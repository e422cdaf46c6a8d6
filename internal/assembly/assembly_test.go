package assembly

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
		&models.WorkOrder{},
		&models.Product{},
		&models.Subassembly{},
		&models.Part{},
		&models.ScanActivity{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedProduct creates product prd-<number> in wo-1 with one part per status.
func seedProduct(t *testing.T, db *gorm.DB, number, status string, partStatuses ...string) *models.Product {
	t.Helper()
	db.FirstOrCreate(&models.WorkOrder{ID: "wo-1", WorkOrderNumber: "240613-Smith Kitchen", Status: models.WorkOrderActive})
	p := models.Product{ID: "prd-" + number, WorkOrderID: "wo-1", ProductNumber: number, Status: status}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	for i, s := range partStatuses {
		rackID, row, col := uint(1), 1, i+1
		pt := models.Part{
			ID:         p.ID + "-" + string(rune('a'+i)),
			ProductID:  p.ID,
			PartNumber: number + "-" + string(rune('A'+i)),
			Status:     s,
		}
		if s != models.PartPending && s != models.PartCut {
			pt.StorageRackID, pt.StorageRow, pt.StorageColumn = &rackID, &row, &col
		}
		if err := db.Create(&pt).Error; err != nil {
			t.Fatalf("seed part: %v", err)
		}
	}
	return &p
}

func inTx(db *gorm.DB, fn func(tx *gorm.DB) (*Result, error)) (*Result, error) {
	var res *Result
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = fn(tx)
		return err
	})
	return res, err
}

func complete(db *gorm.DB, number string) (*Result, error) {
	return inTx(db, func(tx *gorm.DB) (*Result, error) {
		return CompleteAssembly(tx, number, part.TransitionOpts{Station: "Assembly"})
	})
}

func ship(db *gorm.DB, number string) (*Result, error) {
	return inTx(db, func(tx *gorm.DB) (*Result, error) {
		return Ship(tx, number, part.TransitionOpts{Station: "Shipping"})
	})
}

func TestEvaluate(t *testing.T) {
	sorted := models.Part{Status: models.PartSorted}
	cut := models.Part{Status: models.PartCut}
	tests := []struct {
		name   string
		parts  []models.Part
		ready  bool
		sorted int
	}{
		{"no parts", nil, false, 0},
		{"all sorted", []models.Part{sorted, sorted}, true, 2},
		{"one cut", []models.Part{sorted, cut}, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate("prd-1", tt.parts)
			if r.IsReady != tt.ready || r.SortedCount != tt.sorted || r.TotalCount != len(tt.parts) {
				t.Errorf("Evaluate = %+v", r)
			}
		})
	}
}

func TestCompleteAssembly_ReadyProduct(t *testing.T) {
	db := testDB(t)
	seedProduct(t, db, "B24", models.ProductInProgress, models.PartSorted, models.PartSorted)

	r, err := EvaluateReadiness(db, "prd-B24")
	if err != nil {
		t.Fatalf("EvaluateReadiness: %v", err)
	}
	if !r.IsReady || r.SortedCount != 2 || r.TotalCount != 2 {
		t.Fatalf("readiness = %+v, want ready 2/2", r)
	}

	res, err := complete(db, "b24")
	if err != nil {
		t.Fatalf("CompleteAssembly: %v", err)
	}
	if res.PartsChanged != 2 || len(res.Events) != 2 {
		t.Errorf("PartsChanged = %d, events = %d", res.PartsChanged, len(res.Events))
	}

	var assembled int64
	db.Model(&models.Part{}).Where("status = ? AND assembled_at IS NOT NULL", models.PartAssembled).Count(&assembled)
	if assembled != 2 {
		t.Errorf("assembled parts = %d, want 2", assembled)
	}
	var p models.Product
	db.First(&p, "id = ?", "prd-B24")
	if p.Status != models.ProductComplete || p.AssemblyDate == nil {
		t.Errorf("product = %+v, want Complete with AssemblyDate", p)
	}
	var wo models.WorkOrder
	db.First(&wo, "id = ?", "wo-1")
	if wo.Status != models.WorkOrderComplete {
		t.Errorf("work order Status = %q, want Complete", wo.Status)
	}

	if _, err := complete(db, "B24"); !errors.Is(err, ErrAlreadyComplete) {
		t.Errorf("second assembly err = %v, want ErrAlreadyComplete", err)
	}
}

func TestCompleteAssembly_AllOrNothing(t *testing.T) {
	db := testDB(t)
	seedProduct(t, db, "W30", models.ProductInProgress,
		models.PartSorted, models.PartSorted, models.PartSorted, models.PartSorted, models.PartCut)

	_, err := complete(db, "W30")
	var notReady *PartsNotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("err = %v, want *PartsNotReadyError", err)
	}
	if notReady.Missing != 1 || notReady.Total != 5 {
		t.Errorf("Missing/Total = %d/%d, want 1/5", notReady.Missing, notReady.Total)
	}
	if !errors.Is(err, ErrPartsNotReady) {
		t.Error("errors.Is(err, ErrPartsNotReady) = false")
	}

	var sorted int64
	db.Model(&models.Part{}).Where("status = ?", models.PartSorted).Count(&sorted)
	if sorted != 4 {
		t.Errorf("sorted parts = %d, want 4 unchanged", sorted)
	}
	var p models.Product
	db.First(&p, "id = ?", "prd-W30")
	if p.Status != models.ProductInProgress {
		t.Errorf("product Status = %q, want InProgress", p.Status)
	}
	var scans int64
	db.Model(&models.ScanActivity{}).Count(&scans)
	if scans != 0 {
		t.Errorf("scan records = %d, want 0", scans)
	}
}

func TestCompleteAssembly_Errors(t *testing.T) {
	db := testDB(t)
	seedProduct(t, db, "EMPTY", models.ProductPending)

	if _, err := complete(db, "NOPE"); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
	_, err := complete(db, "EMPTY")
	var notReady *PartsNotReadyError
	if !errors.As(err, &notReady) || notReady.Total != 0 {
		t.Errorf("err = %v, want PartsNotReady with no parts", err)
	}
}

func TestShip(t *testing.T) {
	db := testDB(t)
	seedProduct(t, db, "B24", models.ProductInProgress, models.PartSorted, models.PartSorted)

	if _, err := ship(db, "B24"); !errors.Is(err, ErrNotComplete) {
		t.Fatalf("ship before assembly err = %v, want ErrNotComplete", err)
	}
	if _, err := complete(db, "B24"); err != nil {
		t.Fatalf("CompleteAssembly: %v", err)
	}

	res, err := ship(db, "B24")
	if err != nil {
		t.Fatalf("Ship: %v", err)
	}
	if res.PartsChanged != 2 {
		t.Errorf("PartsChanged = %d, want 2", res.PartsChanged)
	}
	var p models.Product
	db.First(&p, "id = ?", "prd-B24")
	if p.Status != models.ProductShipped || p.ShippedDate == nil {
		t.Errorf("product = %+v, want Shipped", p)
	}
	var wo models.WorkOrder
	db.First(&wo, "id = ?", "wo-1")
	if wo.Status != models.WorkOrderShipped {
		t.Errorf("work order Status = %q, want Shipped", wo.Status)
	}

	if _, err := ship(db, "B24"); !errors.Is(err, part.ErrInvalidTransition) {
		t.Errorf("second ship err = %v, want ErrInvalidTransition", err)
	}
}

func TestFindProduct_PrefersOpenProduct(t *testing.T) {
	db := testDB(t)
	db.Create(&models.Product{ID: "prd-old", WorkOrderID: "wo-1", ProductNumber: "B24", Status: models.ProductShipped})
	db.Create(&models.Product{ID: "prd-new", WorkOrderID: "wo-2", ProductNumber: "B24", Status: models.ProductPending})

	got, err := FindProduct(db, "B24", models.ProductPending, models.ProductInProgress)
	if err != nil {
		t.Fatalf("FindProduct: %v", err)
	}
	if got.ID != "prd-new" {
		t.Errorf("ID = %q, want prd-new", got.ID)
	}
	got, _ = FindProduct(db, "B24")
	if got.ID != "prd-old" {
		t.Errorf("ID = %q, want oldest without preference", got.ID)
	}
	got, _ = FindProduct(db, "prd-new")
	if got.ID != "prd-new" {
		t.Errorf("lookup by ID = %q", got.ID)
	}
}
