package models

import "time"

// ScanActivity is the immutable audit record of one part status transition.
type ScanActivity struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	PartID          string    `gorm:"size:50;not null;index"`
	StationName     string    `gorm:"size:64"`
	Activity        string    `gorm:"size:128"`
	OldStatus       string    `gorm:"size:20"`
	NewStatus       string    `gorm:"size:20"`
	StorageLocation string    `gorm:"size:64"`
	OperatorID      string    `gorm:"size:64"`
	ScannedAt       time.Time `gorm:"index"`
}
