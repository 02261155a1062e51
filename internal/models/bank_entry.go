package models

import "time"

type BankStatus string

const (
	BankAvailable  BankStatus = "disponivel"
	BankProduction BankStatus = "em_producao"
	BankDelivered  BankStatus = "entregue"
	BankRework     BankStatus = "rework"
	BankDefective  BankStatus = "defeituosa"
)

// BankEntry: banco de reposição, uma linha por placa por arcada. Nunca é apagada.
type BankEntry struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	CaseID           uint       `gorm:"index:idx_bank_case_arch_tray;not null" json:"case_id"`
	Arch             Arch       `gorm:"index:idx_bank_case_arch_tray;size:20;not null" json:"arch"`
	TrayNumber       int        `gorm:"index:idx_bank_case_arch_tray;not null" json:"tray_number"`
	Status           BankStatus `gorm:"size:20;index;not null" json:"status"`
	SourceWorkItemID *uint      `gorm:"index" json:"source_work_item_id"`
	DeliveredAt      *time.Time `json:"delivered_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
