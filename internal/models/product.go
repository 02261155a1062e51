package models

import "time"

// Product: tipo de produto do catálogo (alinhador, contenção, placa de bruxismo...)
type Product struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Type      string `gorm:"size:50;not null;uniqueIndex"` // código usado em Case/WorkItem.ProductType
	IsAligner bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
