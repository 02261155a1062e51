package production

import (
	"math"
	"time"

	"aligner-lab-backend/internal/models"
)

type AlertLevel string

const (
	AlertInfo     AlertLevel = "informativo" // faltam até 15 dias
	AlertElevated AlertLevel = "elevado"     // faltam até 10 dias
	AlertUrgent   AlertLevel = "urgente"     // já venceu
)

const (
	infoWindowDays     = 15
	elevatedWindowDays = 10
)

// PlannedChangeDates: data prevista de troca por placa (índice = placa-1).
// Uma data real re-ancora aquela placa e as seguintes, nunca as anteriores.
// nil quando não há instalação.
func PlannedChangeDates(c *models.Case) []time.Time {
	if c.Installation == nil || c.Installation.InstalledAt.IsZero() {
		return nil
	}
	every := c.ChangeEveryDays
	if every < 0 {
		every = 0
	}
	actual := map[int]time.Time{}
	for _, a := range c.Installation.ActualChangeDates {
		actual[a.TrayNumber] = a.ChangedAt
	}

	dates := make([]time.Time, c.MaxTray())
	anchorTray, anchor := 1, truncateDay(c.Installation.InstalledAt)
	for n := 1; n <= len(dates); n++ {
		if d, ok := actual[n]; ok {
			anchorTray, anchor = n, truncateDay(d)
		}
		dates[n-1] = anchor.AddDate(0, 0, (n-anchorTray)*every)
	}
	return dates
}

func DueDateForTray(c *models.Case, tray int) (time.Time, bool) {
	dates := PlannedChangeDates(c)
	if tray < 1 || tray > len(dates) {
		return time.Time{}, false
	}
	return dates[tray-1], true
}

// DeliveredToPatient: placas da arcada já entregues ao paciente
func DeliveredToPatient(c *models.Case, leg models.Arch) int {
	if c.Installation == nil {
		return 0
	}
	n := c.Installation.DeliveredLower
	if leg == models.ArchUpper {
		n = c.Installation.DeliveredUpper
	}
	for _, lot := range c.Installation.PatientDeliveryLots {
		if lot.Arch.Includes(leg) && lot.ToTray > n {
			n = lot.ToTray
		}
	}
	return min(n, c.ArchTotal(leg))
}

// pendingArches: arcadas com placas ainda não entregues ao paciente
func pendingArches(c *models.Case) []models.Arch {
	var out []models.Arch
	for _, leg := range c.ActiveArches() {
		if DeliveredToPatient(c, leg) < c.ArchTotal(leg) {
			out = append(out, leg)
		}
	}
	return out
}

type NextDue struct {
	TrayNumber int       `json:"tray_number"`
	DueDate    time.Time `json:"due_date"`
}

// GetNextDueDate: primeira placa ainda não entregue ao paciente e sua data
// prevista. Com as duas arcadas ativas vale o menor contador, mesmo que uma
// delas já esteja concluída.
func GetNextDueDate(c *models.Case) (NextDue, bool) {
	dates := PlannedChangeDates(c)
	if dates == nil {
		return NextDue{}, false
	}
	if len(pendingArches(c)) == 0 {
		return NextDue{}, false
	}
	delivered := math.MaxInt
	for _, leg := range c.ActiveArches() {
		delivered = min(delivered, DeliveredToPatient(c, leg))
	}
	tray := delivered + 1
	if tray > len(dates) {
		return NextDue{}, false
	}
	return NextDue{TrayNumber: tray, DueDate: dates[tray-1]}, true
}

type Alert struct {
	CaseID     uint        `json:"case_id"`
	CaseCode   string      `json:"case_code"`
	Arch       models.Arch `json:"arch"`
	TrayNumber int         `json:"tray_number"`
	DueDate    time.Time   `json:"due_date"`
	DaysToDue  int         `json:"days_to_due"`
	Level      AlertLevel  `json:"level"`
}

func levelFor(days int) (AlertLevel, bool) {
	switch {
	case days < 0:
		return AlertUrgent, true
	case days <= elevatedWindowDays:
		return AlertElevated, true
	case days <= infoWindowDays:
		return AlertInfo, true
	}
	return "", false
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(truncateDay(to).Sub(truncateDay(from)).Hours() / 24))
}

// GetReplenishmentAlerts: no máximo um alerta por caso, o de menor prazo
// entre as arcadas pendentes.
func GetReplenishmentAlerts(c *models.Case, today time.Time) []Alert {
	dates := PlannedChangeDates(c)
	if dates == nil {
		return nil
	}
	var best *Alert
	for _, leg := range pendingArches(c) {
		tray := DeliveredToPatient(c, leg) + 1
		if tray > len(dates) {
			continue
		}
		days := daysBetween(today, dates[tray-1])
		level, ok := levelFor(days)
		if !ok {
			continue
		}
		if best == nil || days < best.DaysToDue {
			best = &Alert{
				CaseID:     c.ID,
				CaseCode:   c.Code,
				Arch:       leg,
				TrayNumber: tray,
				DueDate:    dates[tray-1],
				DaysToDue:  days,
				Level:      level,
			}
		}
	}
	if best == nil {
		return nil
	}
	return []Alert{*best}
}

// ReplenishmentAlerts usa o relógio do serviço
func (s *Service) ReplenishmentAlerts(c *models.Case) []Alert {
	return GetReplenishmentAlerts(c, s.now())
}
