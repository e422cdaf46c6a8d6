package models

import "time"

// Product is a manufactured unit (e.g. a cabinet) composed of parts.
type Product struct {
	ID            string `gorm:"primaryKey;size:50"`
	WorkOrderID   string `gorm:"size:50;not null;index"`
	ProductNumber string `gorm:"size:100;not null;index"`
	ProductName   string `gorm:"size:200"`
	ProductType   string `gorm:"size:50"`
	Status        string `gorm:"size:20;default:Pending;index"`
	TotalParts    int    `gorm:"default:0"`
	AssemblyDate  *time.Time
	ShippedDate   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	WorkOrder     *WorkOrder    `gorm:"foreignKey:WorkOrderID"`
	Parts         []Part        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Subassemblies []Subassembly `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// Subassembly groups parts of a product that are built up separately.
type Subassembly struct {
	ID                string `gorm:"primaryKey;size:50"`
	ProductID         string `gorm:"size:50;not null;index"`
	SubassemblyNumber string `gorm:"size:100;not null"`
	SubassemblyName   string `gorm:"size:200"`
	Status            string `gorm:"size:20;default:Pending"`
	TotalParts        int    `gorm:"default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
