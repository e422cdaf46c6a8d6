package models

import "time"

// WorkOrder is a customer job comprising one or more products.
type WorkOrder struct {
	ID              string `gorm:"primaryKey;size:50"`
	WorkOrderNumber string `gorm:"size:100;not null;index"`
	CustomerName    string `gorm:"size:200"`
	Status          string `gorm:"size:20;default:Active;index"`
	ImportedBy      string `gorm:"size:64"`
	TotalProducts   int    `gorm:"default:0"`
	TotalParts      int    `gorm:"default:0"`
	OrderDate       *time.Time
	DueDate         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Products []Product `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
}
