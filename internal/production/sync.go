package production

import (
	"context"

	"aligner-lab-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// TargetTrayState: estado da placa correspondente ao status do item.
// Controle de qualidade aparece como rework na linha do tempo do paciente.
func TargetTrayState(s models.WorkItemStatus) (models.TrayState, bool) {
	switch s {
	case models.StatusWaiting:
		return models.TrayPending, true
	case models.StatusProduction:
		return models.TrayProduction, true
	case models.StatusQuality:
		return models.TrayRework, true
	case models.StatusReady:
		return models.TrayReady, true
	}
	return "", false
}

// canApply: regra monotônica. Entregue nunca regride, em_producao não rebaixa
// pronta, pendente só é aplicado sobre pendente.
func canApply(current, target models.TrayState) bool {
	switch {
	case current == models.TrayDelivered:
		return false
	case target == models.TrayProduction && current == models.TrayReady:
		return false
	case target == models.TrayPending && current != models.TrayPending:
		return false
	}
	return true
}

// Range: intervalo fechado de placas; vazio quando From > To
type Range struct {
	From int
	To   int
}

func (r Range) Empty() bool { return r.From > r.To || r.From < 1 }

func (r Range) Contains(n int) bool { return !r.Empty() && n >= r.From && n <= r.To }

func (r Range) intersect(o Range) Range {
	out := Range{From: max(r.From, o.From), To: min(r.To, o.To)}
	if out.Empty() {
		return Range{From: 1, To: 0}
	}
	return out
}

// HighestDelivered: maior placa já entregue ao profissional para a arcada
func HighestDelivered(c *models.Case, leg models.Arch) int {
	highest := 0
	for _, lot := range c.DeliveryLots {
		if lot.Arch.Includes(leg) && lot.ToTray > highest {
			highest = lot.ToTray
		}
	}
	return highest
}

func legRange(c *models.Case, item *models.WorkItem, leg models.Arch) Range {
	start := max(HighestDelivered(c, leg)+1, item.TrayNumber)
	qty := item.PlannedQty(leg)
	if qty < 1 {
		qty = 1
	}
	end := min(start+qty-1, c.ArchTotal(leg))
	return Range{From: start, To: end}
}

// BatchRange: placas afetadas por um item de produção comum. Para "ambos" é a
// interseção das faixas superior e inferior.
func BatchRange(c *models.Case, item *models.WorkItem) Range {
	legs := item.Arch.Legs()
	if len(legs) == 0 {
		return Range{From: 1, To: 0}
	}
	r := legRange(c, item, legs[0])
	for _, leg := range legs[1:] {
		r = r.intersect(legRange(c, item, leg))
	}
	return r
}

// ApplyTransition projeta o status do item nas placas do caso e recalcula o
// ciclo de vida. É o único ponto que altera estados de placa a partir da fila.
// Retorna as placas alteradas.
func ApplyTransition(c *models.Case, item *models.WorkItem, aligner bool) ([]int, error) {
	if !aligner {
		return nil, nil
	}
	if item.TrayNumber < 1 || item.TrayNumber > c.MaxTray() {
		return nil, validationError("Placa %d fora do intervalo 1..%d do caso %s", item.TrayNumber, c.MaxTray(), c.Code)
	}
	target, ok := TargetTrayState(item.Status)
	if !ok {
		return nil, validationError("Status desconhecido: %s", item.Status)
	}

	var r Range
	if item.RequestKind == models.RequestRework {
		r = Range{From: item.TrayNumber, To: item.TrayNumber}
	} else {
		r = BatchRange(c, item)
	}

	var changed []int
	if !r.Empty() {
		for i := range c.Trays {
			t := &c.Trays[i]
			if !r.Contains(t.TrayNumber) || t.State == target || !canApply(t.State, target) {
				continue
			}
			t.State = target
			changed = append(changed, t.TrayNumber)
		}
	}

	RecomputeLifecycle(c)
	return changed, nil
}

// RecomputeLifecycle deriva o status do caso a partir das placas.
func RecomputeLifecycle(c *models.Case) {
	if len(c.Trays) > 0 {
		all := true
		for _, t := range c.Trays {
			if t.State != models.TrayDelivered {
				all = false
				break
			}
		}
		if all {
			c.Status = models.CaseStatusFinalized
			return
		}
	}
	if len(c.DeliveryLots) > 0 || c.Installation != nil {
		c.Status = models.CaseStatusDelivery
		return
	}
	for _, t := range c.Trays {
		switch t.State {
		case models.TrayProduction, models.TrayReady, models.TrayRework:
			c.Status = models.CaseStatusProduction
			return
		}
	}
}

// SyncWorkItemToCaseTray reflete o status atual do item nas placas do caso.
// Também serve para correções fora do fluxo normal.
func (s *Service) SyncWorkItemToCaseTray(ctx context.Context, item *models.WorkItem) error {
	if item == nil || item.CaseID == nil {
		return nil
	}
	return s.withCase(ctx, item.CaseID, func(tx Store) error {
		return s.syncTx(ctx, tx, item)
	})
}

func (s *Service) syncTx(ctx context.Context, tx Store, item *models.WorkItem) error {
	if item.CaseID == nil {
		return nil
	}
	c, err := loadCase(ctx, tx, *item.CaseID)
	if err != nil {
		return err
	}
	aligner, err := s.isAligner(ctx, item, c)
	if err != nil {
		return err
	}
	if !aligner {
		return nil
	}
	changed, err := ApplyTransition(c, item, true)
	if err != nil {
		return err
	}
	if err := tx.Cases().Save(ctx, c); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"case_id":      c.ID,
		"work_item_id": item.ID,
		"status":       item.Status,
		"trays":        changed,
		"case_status":  c.Status,
	}).Debug("placas sincronizadas")
	return nil
}
