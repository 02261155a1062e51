package models

import "time"

// DeliveryLot: lote entregue do laboratório para o profissional
type DeliveryLot struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	CaseID              uint      `gorm:"index;not null" json:"case_id"`
	Arch                Arch      `gorm:"size:20;not null" json:"arch"`
	FromTray            int       `gorm:"not null" json:"from_tray"`
	ToTray              int       `gorm:"not null" json:"to_tray"`
	Quantity            int       `gorm:"not null" json:"quantity"`
	DeliveredToDoctorAt time.Time `gorm:"index;not null" json:"delivered_to_doctor_at"`
	Note                string    `gorm:"size:255" json:"note"`
	CreatedAt           time.Time `json:"created_at"`
}

// Installation: entrega do profissional para o paciente
type Installation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CaseID         uint      `gorm:"uniqueIndex;not null" json:"case_id"`
	InstalledAt    time.Time `gorm:"not null" json:"installed_at"`
	DeliveredUpper int       `gorm:"not null;default:0" json:"delivered_upper"` // placas superiores já com o paciente
	DeliveredLower int       `gorm:"not null;default:0" json:"delivered_lower"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	PatientDeliveryLots []PatientDeliveryLot `gorm:"foreignKey:InstallationID;constraint:OnDelete:CASCADE" json:"patient_delivery_lots"`
	ActualChangeDates   []ActualChangeDate   `gorm:"foreignKey:InstallationID;constraint:OnDelete:CASCADE" json:"actual_change_dates"`
}

type PatientDeliveryLot struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InstallationID uint      `gorm:"index;not null" json:"installation_id"`
	Arch           Arch      `gorm:"size:20;not null" json:"arch"`
	FromTray       int       `gorm:"not null" json:"from_tray"`
	ToTray         int       `gorm:"not null" json:"to_tray"`
	DeliveredAt    time.Time `gorm:"not null" json:"delivered_at"`
	Note           string    `gorm:"size:255" json:"note"`
	CreatedAt      time.Time `json:"created_at"`
}

// ActualChangeDate: data real de troca informada pelo profissional
type ActualChangeDate struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InstallationID uint      `gorm:"index;not null" json:"installation_id"`
	TrayNumber     int       `gorm:"not null" json:"tray_number"`
	ChangedAt      time.Time `gorm:"not null" json:"changed_at"`
	CreatedAt      time.Time `json:"created_at"`
}
