package models

import "time"

type WorkItemStatus string

const (
	StatusWaiting    WorkItemStatus = "aguardando_iniciar"
	StatusProduction WorkItemStatus = "em_producao"
	StatusQuality    WorkItemStatus = "controle_qualidade"
	StatusReady      WorkItemStatus = "prontas"
)

// WorkItemPipeline: ordem estrita da fila de produção
var WorkItemPipeline = []WorkItemStatus{StatusWaiting, StatusProduction, StatusQuality, StatusReady}

// Index: posição na pipeline, -1 se desconhecido
func (s WorkItemStatus) Index() int {
	for i, st := range WorkItemPipeline {
		if st == s {
			return i
		}
	}
	return -1
}

type RequestKind string

const (
	RequestProduction  RequestKind = "producao"
	RequestRework      RequestKind = "reconfeccao"
	RequestReplacement RequestKind = "reposicao_programada"
)

type Priority string

const (
	PriorityLow    Priority = "baixa"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "alta"
	PriorityUrgent Priority = "urgente"
)

// WorkItem: ordem de produção do laboratório
type WorkItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CaseID      *uint          `gorm:"index" json:"case_id"` // nil = item avulso
	ProductType string         `gorm:"size:50" json:"product_type"`
	Arch        Arch           `gorm:"size:20" json:"arch"`
	TrayNumber  int            `gorm:"not null;default:0" json:"tray_number"`
	QtyUpper    int            `gorm:"not null;default:0" json:"qty_upper"`
	QtyLower    int            `gorm:"not null;default:0" json:"qty_lower"`
	RequestKind RequestKind    `gorm:"size:30;index;not null" json:"request_kind"`
	RequestCode string         `gorm:"size:60;index" json:"request_code"`
	Status      WorkItemStatus `gorm:"size:30;index;not null" json:"status"`
	Priority    Priority       `gorm:"size:20;not null;default:'normal'" json:"priority"`
	DueDate     *time.Time     `json:"due_date"`
	Notes       string         `gorm:"size:500" json:"notes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Combined: quantidade total do lote (superior + inferior)
func (w *WorkItem) Combined() int {
	return w.QtyUpper + w.QtyLower
}

// PlannedQty: quantidade planejada para uma arcada; se a perna estiver zerada usa o total
func (w *WorkItem) PlannedQty(leg Arch) int {
	var q int
	switch leg {
	case ArchUpper:
		q = w.QtyUpper
	case ArchLower:
		q = w.QtyLower
	}
	if q > 0 {
		return q
	}
	return w.Combined()
}
