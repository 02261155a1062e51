package models

import "time"

type Arch string

const (
	ArchUpper Arch = "superior"
	ArchLower Arch = "inferior"
	ArchBoth  Arch = "ambos"
)

// Legs: "ambos" vira superior + inferior
func (a Arch) Legs() []Arch {
	switch a {
	case ArchBoth:
		return []Arch{ArchUpper, ArchLower}
	case ArchUpper, ArchLower:
		return []Arch{a}
	default:
		return nil
	}
}

func (a Arch) Valid() bool {
	return a == ArchUpper || a == ArchLower || a == ArchBoth
}

// Includes: lote/entrada desta arcada cobre a arcada informada?
func (a Arch) Includes(leg Arch) bool {
	return a == leg || a == ArchBoth
}

type CaseStatus string

const (
	CaseStatusPlanning   CaseStatus = "planejamento"
	CaseStatusProduction CaseStatus = "em_producao"
	CaseStatusDelivery   CaseStatus = "em_entrega"
	CaseStatusFinalized  CaseStatus = "finalizado"
)

// Case: tratamento do paciente (plano de placas por arcada)
type Case struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Code            string     `gorm:"size:50;uniqueIndex;not null" json:"code"` // código base do tratamento, ex: "ALN-0042"
	PatientName     string     `gorm:"size:150;not null" json:"patient_name"`
	ProductType     string     `gorm:"size:50" json:"product_type"`
	TotalTraysUpper int        `gorm:"not null;default:0" json:"total_trays_upper"`
	TotalTraysLower int        `gorm:"not null;default:0" json:"total_trays_lower"`
	ChangeEveryDays int        `gorm:"not null;default:7" json:"change_every_days"`
	Status          CaseStatus `gorm:"size:30;index;not null" json:"status"`
	RevisionSeq     int        `gorm:"not null;default:0" json:"revision_seq"` // último N usado em "{code}/{N}"
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Trays        []Tray        `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"trays"`
	DeliveryLots []DeliveryLot `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"delivery_lots"`
	Installation *Installation `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"installation,omitempty"`
}

// MaxTray: max(superior, inferior)
func (c *Case) MaxTray() int {
	if c.TotalTraysUpper > c.TotalTraysLower {
		return c.TotalTraysUpper
	}
	return c.TotalTraysLower
}

func (c *Case) ArchTotal(a Arch) int {
	switch a {
	case ArchUpper:
		return c.TotalTraysUpper
	case ArchLower:
		return c.TotalTraysLower
	case ArchBoth:
		return c.MaxTray()
	}
	return 0
}

// ActiveArches: arcadas com pelo menos uma placa planejada
func (c *Case) ActiveArches() []Arch {
	var out []Arch
	if c.TotalTraysUpper > 0 {
		out = append(out, ArchUpper)
	}
	if c.TotalTraysLower > 0 {
		out = append(out, ArchLower)
	}
	return out
}

func (c *Case) Tray(number int) *Tray {
	for i := range c.Trays {
		if c.Trays[i].TrayNumber == number {
			return &c.Trays[i]
		}
	}
	return nil
}

// Phase: rótulo exibido na linha do tempo do paciente
func (c *Case) Phase() string {
	switch c.Status {
	case CaseStatusProduction:
		return "Em produção"
	case CaseStatusDelivery:
		return "Em entrega"
	case CaseStatusFinalized:
		return "Finalizado"
	default:
		return "Planejamento"
	}
}

// Clone: cópia profunda (trays, lotes, instalação)
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.Trays = make([]Tray, len(c.Trays))
	for i, t := range c.Trays {
		out.Trays[i] = t.clone()
	}
	out.DeliveryLots = append([]DeliveryLot(nil), c.DeliveryLots...)
	if c.Installation != nil {
		inst := *c.Installation
		inst.PatientDeliveryLots = append([]PatientDeliveryLot(nil), c.Installation.PatientDeliveryLots...)
		inst.ActualChangeDates = append([]ActualChangeDate(nil), c.Installation.ActualChangeDates...)
		out.Installation = &inst
	}
	return &out
}
