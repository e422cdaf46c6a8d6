package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

func TestPart_Fields(t *testing.T) {
	typ := reflect.TypeOf(Part{})
	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ProductID", "not null")
	assertGormTag(t, typ, "PartNumber", "index")
	assertGormTag(t, typ, "Status", "default:Pending")
	assertGormTag(t, typ, "StorageRackID", "idx_part_slot")
	assertGormTag(t, typ, "StorageRow", "idx_part_slot")
	assertGormTag(t, typ, "StorageColumn", "idx_part_slot")
}

func TestPlacedSheet_BarcodeUnique(t *testing.T) {
	assertGormTag(t, reflect.TypeOf(PlacedSheet{}), "Barcode", "uniqueIndex")
}

func TestStorageRack_NameUnique(t *testing.T) {
	assertGormTag(t, reflect.TypeOf(StorageRack{}), "Name", "uniqueIndex")
}

func TestPart_Location(t *testing.T) {
	var p Part
	if p.HasLocation() {
		t.Fatal("zero part should have no location")
	}
	if !p.Location().IsZero() {
		t.Errorf("Location() = %+v, want zero", p.Location())
	}

	rack, row, col := uint(2), 1, 3
	p.StorageRackID, p.StorageRow = &rack, &row
	if p.HasLocation() {
		t.Error("part with missing column should have no location")
	}
	p.StorageColumn = &col
	got := p.Location()
	if got != (Slot{RackID: 2, Row: 1, Column: 3}) {
		t.Errorf("Location() = %+v", got)
	}
	if got.String() != "rack 2 R1C3" {
		t.Errorf("String() = %q", got.String())
	}
}

func TestStorageRack_Capacity(t *testing.T) {
	r := StorageRack{Rows: 4, Columns: 6}
	if r.Capacity() != 24 {
		t.Errorf("Capacity() = %d, want 24", r.Capacity())
	}
}
