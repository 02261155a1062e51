package models

import "time"

type TrayState string

const (
	TrayPending    TrayState = "pendente"
	TrayProduction TrayState = "em_producao"
	TrayRework     TrayState = "rework"
	TrayReady      TrayState = "pronta"
	TrayDelivered  TrayState = "entregue"
)

// Tray: uma placa da sequência do tratamento
type Tray struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CaseID      uint       `gorm:"uniqueIndex:idx_tray_case_number;not null" json:"case_id"`
	TrayNumber  int        `gorm:"uniqueIndex:idx_tray_case_number;not null" json:"tray_number"`
	State       TrayState  `gorm:"size:20;not null" json:"state"`
	DueDate     *time.Time `json:"due_date"`
	Notes       string     `gorm:"size:500" json:"notes"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t Tray) clone() Tray {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.DeliveredAt != nil {
		d := *t.DeliveredAt
		t.DeliveredAt = &d
	}
	return t
}
