package models

import "time"

// StorageRack is a physical grid of slots parts are sorted into.
type StorageRack struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:100;not null;uniqueIndex"`
	Rows      int    `gorm:"not null"`
	Columns   int    `gorm:"not null"`
	Active    bool   `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Capacity is the number of slots in the rack.
func (r *StorageRack) Capacity() int {
	return r.Rows * r.Columns
}
