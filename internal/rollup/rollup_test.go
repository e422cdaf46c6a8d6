package rollup

import (
	"testing"

	"github.com/zulandar/shopfloor/internal/models"
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
		&models.StorageRack{},
		&models.Part{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedOrder creates wo-1 with products prd-1 (3 parts) and prd-2 (1 part).
func seedOrder(t *testing.T, db *gorm.DB) {
	t.Helper()
	sub := "sub-1"
	rows := []interface{}{
		&models.WorkOrder{ID: "wo-1", WorkOrderNumber: "240613-Smith Kitchen", Status: models.WorkOrderActive},
		&models.Product{ID: "prd-1", WorkOrderID: "wo-1", ProductNumber: "B24", Status: models.ProductPending},
		&models.Product{ID: "prd-2", WorkOrderID: "wo-1", ProductNumber: "W30", Status: models.ProductPending},
		&models.Subassembly{ID: sub, ProductID: "prd-1", SubassemblyNumber: "B24-DRAWER"},
		&models.Part{ID: "prt-1", ProductID: "prd-1", PartNumber: "B24-SIDE-L", Status: models.PartPending},
		&models.Part{ID: "prt-2", ProductID: "prd-1", PartNumber: "B24-SIDE-R", Status: models.PartPending},
		&models.Part{ID: "prt-3", ProductID: "prd-1", SubassemblyID: &sub, PartNumber: "B24-DRW-FRONT", Status: models.PartPending},
		&models.Part{ID: "prt-4", ProductID: "prd-2", PartNumber: "W30-SIDE", Status: models.PartPending},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed %T: %v", r, err)
		}
	}
}

func setStatus(t *testing.T, db *gorm.DB, model interface{}, id, status string) {
	t.Helper()
	if err := db.Model(model).Where("id = ?", id).Update("status", status).Error; err != nil {
		t.Fatalf("set status of %s: %v", id, err)
	}
}

func TestRefreshCounters(t *testing.T) {
	db := testDB(t)
	seedOrder(t, db)

	if err := RefreshProduct(db, "prd-1"); err != nil {
		t.Fatalf("RefreshProduct: %v", err)
	}
	if err := RefreshWorkOrder(db, "wo-1"); err != nil {
		t.Fatalf("RefreshWorkOrder: %v", err)
	}

	var p models.Product
	db.First(&p, "id = ?", "prd-1")
	if p.TotalParts != 3 {
		t.Errorf("product TotalParts = %d, want 3", p.TotalParts)
	}
	var s models.Subassembly
	db.First(&s, "id = ?", "sub-1")
	if s.TotalParts != 1 {
		t.Errorf("subassembly TotalParts = %d, want 1", s.TotalParts)
	}
	var wo models.WorkOrder
	db.First(&wo, "id = ?", "wo-1")
	if wo.TotalProducts != 2 || wo.TotalParts != 4 {
		t.Errorf("work order totals = %d products / %d parts, want 2 / 4", wo.TotalProducts, wo.TotalParts)
	}
}

func TestSummarize(t *testing.T) {
	db := testDB(t)
	seedOrder(t, db)
	setStatus(t, db, &models.Part{}, "prt-1", models.PartCut)
	setStatus(t, db, &models.Part{}, "prt-2", models.PartSorted)

	s, err := Summarize(db, "wo-1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TotalParts != 4 || s.TotalProducts != 2 {
		t.Errorf("totals = %d parts / %d products", s.TotalParts, s.TotalProducts)
	}
	want := map[string]int{models.PartPending: 2, models.PartCut: 1, models.PartSorted: 1}
	for status, n := range want {
		if s.PartsByStatus[status] != n {
			t.Errorf("PartsByStatus[%s] = %d, want %d", status, s.PartsByStatus[status], n)
		}
	}
	if s.ProductsByStatus[models.ProductPending] != 2 {
		t.Errorf("ProductsByStatus = %v", s.ProductsByStatus)
	}
}

func TestSummarize_MissingWorkOrder(t *testing.T) {
	db := testDB(t)
	if _, err := Summarize(db, "nope"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCascade_StartsProduct(t *testing.T) {
	db := testDB(t)
	seedOrder(t, db)

	if err := Cascade(db, "prd-1"); err != nil {
		t.Fatalf("Cascade: %v", err)
	}
	var p models.Product
	db.First(&p, "id = ?", "prd-1")
	if p.Status != models.ProductPending {
		t.Errorf("untouched product Status = %q, want Pending", p.Status)
	}

	setStatus(t, db, &models.Part{}, "prt-1", models.PartCut)
	if err := Cascade(db, "prd-1"); err != nil {
		t.Fatalf("Cascade: %v", err)
	}
	db.First(&p, "id = ?", "prd-1")
	if p.Status != models.ProductInProgress {
		t.Errorf("Status = %q, want InProgress", p.Status)
	}
}

func TestCascade_WorkOrderCompletion(t *testing.T) {
	db := testDB(t)
	seedOrder(t, db)

	setStatus(t, db, &models.Product{}, "prd-1", models.ProductComplete)
	if err := Cascade(db, "prd-1"); err != nil {
		t.Fatalf("Cascade: %v", err)
	}
	var wo models.WorkOrder
	db.First(&wo, "id = ?", "wo-1")
	if wo.Status != models.WorkOrderActive {
		t.Errorf("Status = %q, want Active while prd-2 is pending", wo.Status)
	}

	setStatus(t, db, &models.Product{}, "prd-2", models.ProductComplete)
	if err := Cascade(db, "prd-2"); err != nil {
		t.Fatalf("Cascade: %v", err)
	}
	db.First(&wo, "id = ?", "wo-1")
	if wo.Status != models.WorkOrderComplete {
		t.Errorf("Status = %q, want Complete", wo.Status)
	}

	setStatus(t, db, &models.Product{}, "prd-1", models.ProductShipped)
	Cascade(db, "prd-1")
	db.First(&wo, "id = ?", "wo-1")
	if wo.Status != models.WorkOrderComplete {
		t.Errorf("Status = %q, want Complete with one product shipped", wo.Status)
	}

	setStatus(t, db, &models.Product{}, "prd-2", models.ProductShipped)
	Cascade(db, "prd-2")
	db.First(&wo, "id = ?", "wo-1")
	if wo.Status != models.WorkOrderShipped {
		t.Errorf("Status = %q, want Shipped", wo.Status)
	}
}

func TestPartStatusCounts_AllWorkOrders(t *testing.T) {
	db := testDB(t)
	seedOrder(t, db)
	db.Create(&models.WorkOrder{ID: "wo-2", WorkOrderNumber: "240614-Jones Bath", Status: models.WorkOrderActive})
	db.Create(&models.Product{ID: "prd-9", WorkOrderID: "wo-2", ProductNumber: "V36", Status: models.ProductPending})
	db.Create(&models.Part{ID: "prt-x", ProductID: "prd-9", PartNumber: "V36-SIDE", Status: models.PartCut})

	counts, err := PartStatusCounts(db, "")
	if err != nil {
		t.Fatalf("PartStatusCounts: %v", err)
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
}
