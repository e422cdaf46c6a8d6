package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/shopfloor/internal/config"
	"github.com/zulandar/shopfloor/internal/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		database string
		want     string
	}{
		{
			name:     "default local",
			cfg:      config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 3306},
			database: "shopfloor_north",
			want:     "root@tcp(127.0.0.1:3306)/shopfloor_north?parseTime=true",
		},
		{
			name:     "with password",
			cfg:      config.DatabaseConfig{User: "tracker", Password: "secret", Host: "10.0.0.5", Port: 3307},
			database: "shopfloor_annex",
			want:     "tracker:secret@tcp(10.0.0.5:3307)/shopfloor_annex?parseTime=true",
		},
		{
			name:     "server level",
			cfg:      config.DatabaseConfig{User: "root", Host: "db.internal", Port: 3306},
			database: "",
			want:     "root@tcp(db.internal:3306)/?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.cfg, tt.database)
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{":memory:", ":memory:"},
		{"shopfloor.db", "shopfloor.db?_busy_timeout=5000&_txlock=immediate"},
		{"/var/lib/sf/shop.db?_foreign_keys=1", "/var/lib/sf/shop.db?_foreign_keys=1"},
	}
	for _, tt := range tests {
		if got := SQLiteDSN(tt.path); got != tt.want {
			t.Errorf("SQLiteDSN(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `unsupported driver "oracle"`) {
		t.Errorf("error = %q", err)
	}
}

func TestConnect_MySQLError(t *testing.T) {
	// Port 1 is unlikely to have a MySQL server; expect connection error.
	_, err := Connect(config.DatabaseConfig{Driver: "mysql", User: "root", Host: "127.0.0.1", Port: 1, Name: "nonexistent"})
	if err == nil {
		t.Fatal("expected error connecting to invalid port")
	}
	if !strings.Contains(err.Error(), "db: connect to") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db: connect to")
	}
}

func TestConnectAdmin_Error(t *testing.T) {
	_, err := ConnectAdmin(config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 1})
	if err == nil {
		t.Fatal("expected error connecting to invalid port")
	}
	if !strings.Contains(err.Error(), "db: admin connect to") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db: admin connect to")
	}
}

func TestConnect_SQLiteMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	gormDB, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	for _, m := range AllModels() {
		if !gormDB.Migrator().HasTable(m) {
			t.Errorf("table for %T not created", m)
		}
	}

	rack := models.StorageRack{Name: "Rack-A", Rows: 2, Columns: 2, Active: true}
	if err := gormDB.Create(&rack).Error; err != nil {
		t.Fatalf("create rack: %v", err)
	}
	if rack.ID == 0 {
		t.Error("rack ID not assigned")
	}
}

func TestAllModels_Count(t *testing.T) {
	if got := len(AllModels()); got != 8 {
		t.Errorf("AllModels() returned %d models, want 8", got)
	}
}
