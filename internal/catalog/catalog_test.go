package catalog

import (
	"errors"
	"strings"
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
		&models.Part{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestGenerateID(t *testing.T) {
	id := GenerateID("wo")
	if !strings.HasPrefix(id, "wo-") || len(id) != len("wo-")+8 {
		t.Errorf("id = %q", id)
	}
	if GenerateID("wo") == id {
		t.Error("expected distinct IDs")
	}
}

func TestCreateWorkOrderAndProduct(t *testing.T) {
	db := testDB(t)

	wo, err := CreateWorkOrder(db, WorkOrderOpts{Number: "240613-Smith Kitchen", Customer: "Smith"})
	if err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}
	if wo.Status != models.WorkOrderActive {
		t.Errorf("Status = %q, want Active", wo.Status)
	}

	for _, n := range []string{"W30", "B24"} {
		if _, err := CreateProduct(db, ProductOpts{WorkOrderID: wo.WorkOrderNumber, Number: n}); err != nil {
			t.Fatalf("CreateProduct %s: %v", n, err)
		}
	}

	loaded, err := LoadWorkOrder(db, wo.ID)
	if err != nil {
		t.Fatalf("LoadWorkOrder: %v", err)
	}
	if loaded.TotalProducts != 2 || len(loaded.Products) != 2 {
		t.Fatalf("TotalProducts = %d, products = %d", loaded.TotalProducts, len(loaded.Products))
	}
	if loaded.Products[0].ProductNumber != "B24" {
		t.Errorf("first product = %q, want products ordered by number", loaded.Products[0].ProductNumber)
	}
}

func TestCreateProduct_Rejects(t *testing.T) {
	db := testDB(t)
	if _, err := CreateProduct(db, ProductOpts{WorkOrderID: "wo-missing", Number: "B24"}); !errors.Is(err, ErrWorkOrderNotFound) {
		t.Errorf("err = %v, want ErrWorkOrderNotFound", err)
	}
	if _, err := CreateProduct(db, ProductOpts{WorkOrderID: "wo-1"}); err == nil {
		t.Error("expected error for empty number")
	}

	db.Create(&models.WorkOrder{ID: "wo-1", WorkOrderNumber: "done", Status: models.WorkOrderShipped})
	if _, err := CreateProduct(db, ProductOpts{WorkOrderID: "wo-1", Number: "B24"}); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestCreateSubassembly_MissingProduct(t *testing.T) {
	db := testDB(t)
	if _, err := CreateSubassembly(db, SubassemblyOpts{ProductID: "prd-x", Number: "DRW"}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}

func TestListWorkOrders(t *testing.T) {
	db := testDB(t)
	db.Create(&models.WorkOrder{ID: "wo-1", WorkOrderNumber: "A", Status: models.WorkOrderActive})
	db.Create(&models.WorkOrder{ID: "wo-2", WorkOrderNumber: "B", Status: models.WorkOrderShipped})

	all, err := ListWorkOrders(db, "")
	if err != nil {
		t.Fatalf("ListWorkOrders: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len = %d, want 2", len(all))
	}
	active, _ := ListWorkOrders(db, models.WorkOrderActive)
	if len(active) != 1 || active[0].ID != "wo-1" {
		t.Errorf("active = %+v", active)
	}
}
