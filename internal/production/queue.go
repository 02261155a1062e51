package production

import (
	"context"
	"fmt"
	"time"

	"aligner-lab-backend/internal/models"

	"github.com/sirupsen/logrus"
)

type NewWorkItem struct {
	CaseID      *uint              `json:"case_id"`
	ProductType string             `json:"product_type" validate:"max=50"`
	Arch        models.Arch        `json:"arch" validate:"omitempty,oneof=superior inferior ambos"`
	TrayNumber  int                `json:"tray_number" validate:"gte=0"`
	QtyUpper    int                `json:"qty_upper" validate:"gte=0"`
	QtyLower    int                `json:"qty_lower" validate:"gte=0"`
	RequestKind models.RequestKind `json:"request_kind" validate:"omitempty,oneof=producao reconfeccao reposicao_programada"`
	Priority    models.Priority    `json:"priority" validate:"omitempty,oneof=baixa normal alta urgente"`
	DueDate     *time.Time         `json:"due_date"`
	Notes       string             `json:"notes" validate:"max=500"`
}

// ProductionStart é o resumo mostrado ao operador antes de iniciar a produção.
type ProductionStart struct {
	WorkItem  models.WorkItem
	CaseCode  string
	Debit     DebitRequest
	Available map[models.Arch]int
}

// ConfirmFunc: decisão síncrona sim/não antes dos efeitos colaterais.
type ConfirmFunc func(ctx context.Context, start ProductionStart) bool

// Confirmed: para chamadores que já obtiveram a confirmação (ex: HTTP com "confirm": true)
func Confirmed(ok bool) ConfirmFunc {
	return func(context.Context, ProductionStart) bool { return ok }
}

func (s *Service) CreateWorkItem(ctx context.Context, in NewWorkItem) (*models.WorkItem, error) {
	if err := checkPayload(in); err != nil {
		return nil, err
	}
	item := &models.WorkItem{
		CaseID:      in.CaseID,
		ProductType: in.ProductType,
		Arch:        in.Arch,
		TrayNumber:  in.TrayNumber,
		QtyUpper:    in.QtyUpper,
		QtyLower:    in.QtyLower,
		RequestKind: in.RequestKind,
		Status:      models.StatusWaiting,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Notes:       in.Notes,
	}
	if item.RequestKind == "" {
		item.RequestKind = models.RequestProduction
	}
	if item.Priority == "" {
		item.Priority = models.PriorityNormal
	}

	err := s.withCase(ctx, in.CaseID, func(tx Store) error {
		return s.createWorkItemTx(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) createWorkItemTx(ctx context.Context, tx Store, item *models.WorkItem) error {
	if item.CaseID != nil {
		c, err := loadCase(ctx, tx, *item.CaseID)
		if err != nil {
			return err
		}
		aligner, err := s.isAligner(ctx, item, c)
		if err != nil {
			return err
		}
		if aligner && (item.TrayNumber < 1 || item.TrayNumber > c.MaxTray()) {
			return validationError("Placa %d fora do intervalo 1..%d do caso %s", item.TrayNumber, c.MaxTray(), c.Code)
		}
		if item.RequestKind == models.RequestReplacement {
			item.RequestCode = nextRevisionCode(c)
			if err := tx.Cases().Save(ctx, c); err != nil {
				return err
			}
		} else {
			item.RequestCode = c.Code
		}
	}
	if err := tx.WorkItems().Create(ctx, item); err != nil {
		return fmt.Errorf("criar item: %w", err)
	}
	return nil
}

// nextRevisionCode: "{code}/{N}" com contador explícito no caso
func nextRevisionCode(c *models.Case) string {
	c.RevisionSeq++
	return fmt.Sprintf("%s/%d", c.Code, c.RevisionSeq)
}

func (s *Service) GetWorkItem(ctx context.Context, id uint) (*models.WorkItem, error) {
	return loadWorkItem(ctx, s.store, id)
}

func (s *Service) ListWorkItems(ctx context.Context, filter WorkItemFilter) ([]models.WorkItem, error) {
	items, err := s.store.WorkItems().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar itens: %w", err)
	}
	return items, nil
}

// CheckTransition: apenas um passo para frente ou para trás na pipeline
func CheckTransition(from, to models.WorkItemStatus) error {
	i, j := from.Index(), to.Index()
	if i < 0 || j < 0 {
		return invalidTransition(from, to)
	}
	if d := j - i; d != 1 && d != -1 {
		return invalidTransition(from, to)
	}
	return nil
}

// guardProduction: arcada definida e, para alinhadores, lote > 0
func guardProduction(item *models.WorkItem, aligner bool) error {
	if !item.Arch.Valid() {
		return validationError("Defina a arcada antes de iniciar a produção")
	}
	if aligner && item.Combined() <= 0 {
		return validationError("Quantidade do lote deve ser maior que zero")
	}
	return nil
}

// TransitionWorkItem move o item um passo na pipeline. A entrada em produção
// (a partir de aguardando_iniciar) exige confirmação e dispara o débito do
// banco e a reposição programada; tudo é gravado junto ou nada é gravado.
func (s *Service) TransitionWorkItem(ctx context.Context, id uint, next models.WorkItemStatus, confirm ConfirmFunc) (*models.WorkItem, error) {
	item, err := loadWorkItem(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(item.Status, next); err != nil {
		return nil, err
	}

	var c *models.Case
	if item.CaseID != nil {
		if c, err = loadCase(ctx, s.store, *item.CaseID); err != nil {
			return nil, err
		}
	}
	aligner, err := s.isAligner(ctx, item, c)
	if err != nil {
		return nil, err
	}

	starting := next == models.StatusProduction && item.Status == models.StatusWaiting
	if next == models.StatusProduction {
		if err := guardProduction(item, aligner); err != nil {
			return nil, err
		}
	}
	if starting {
		start, err := s.productionStart(ctx, item, c, aligner)
		if err != nil {
			return nil, err
		}
		if confirm == nil || !confirm(ctx, start) {
			return nil, &Error{Kind: KindCancelled, Message: "Início de produção cancelado pelo operador"}
		}
	}

	from := item.Status
	err = s.withCase(ctx, item.CaseID, func(tx Store) error {
		cur, err := loadWorkItem(ctx, tx, id)
		if err != nil {
			return err
		}
		// alterado por outro operador enquanto aguardava confirmação
		if cur.Status != from {
			return invalidTransition(cur.Status, next)
		}
		cur.Status = next
		if err := tx.WorkItems().Save(ctx, cur); err != nil {
			return fmt.Errorf("gravar item %d: %w", id, err)
		}
		if err := s.syncTx(ctx, tx, cur); err != nil {
			return err
		}
		if starting && cur.CaseID != nil && aligner {
			if _, err := s.debitTx(ctx, tx, cur); err != nil {
				return err
			}
			if err := s.ensureReplacementTx(ctx, tx, cur); err != nil {
				return err
			}
		}
		item = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"work_item_id": item.ID,
		"from":         from,
		"to":           next,
	}).Info("item movido na fila")
	return item, nil
}

func (s *Service) productionStart(ctx context.Context, item *models.WorkItem, c *models.Case, aligner bool) (ProductionStart, error) {
	start := ProductionStart{WorkItem: *item, Available: map[models.Arch]int{}}
	if c == nil || !aligner {
		return start, nil
	}
	start.CaseCode = c.Code
	start.Debit = debitRequestFor(item)
	entries, err := s.store.Bank().ListByCase(ctx, c.ID)
	if err != nil {
		return start, fmt.Errorf("listar banco do caso %d: %w", c.ID, err)
	}
	for _, leg := range item.Arch.Legs() {
		_, available := SelectForDebit(entries, leg, 0)
		start.Available[leg] = available
	}
	return start, nil
}

// ensureReplacementTx: deixa a próxima reposição da placa já na fila
func (s *Service) ensureReplacementTx(ctx context.Context, tx Store, item *models.WorkItem) error {
	existing, err := tx.WorkItems().List(ctx, WorkItemFilter{CaseID: item.CaseID, RequestKind: models.RequestReplacement})
	if err != nil {
		return fmt.Errorf("listar reposições: %w", err)
	}
	for _, w := range existing {
		if w.TrayNumber == item.TrayNumber {
			return nil
		}
	}

	c, err := loadCase(ctx, tx, *item.CaseID)
	if err != nil {
		return err
	}
	repl := &models.WorkItem{
		CaseID:      item.CaseID,
		ProductType: item.ProductType,
		Arch:        item.Arch,
		TrayNumber:  item.TrayNumber,
		RequestKind: models.RequestReplacement,
		RequestCode: nextRevisionCode(c),
		Status:      models.StatusWaiting,
		Priority:    models.PriorityNormal,
	}
	for _, leg := range item.Arch.Legs() {
		if leg == models.ArchUpper {
			repl.QtyUpper = 1
		} else {
			repl.QtyLower = 1
		}
	}
	if t := c.Tray(item.TrayNumber); t != nil && t.DueDate != nil {
		d := *t.DueDate
		repl.DueDate = &d
	}
	if err := tx.Cases().Save(ctx, c); err != nil {
		return err
	}
	if err := tx.WorkItems().Create(ctx, repl); err != nil {
		return fmt.Errorf("criar reposição programada: %w", err)
	}
	return nil
}

// DeleteWorkItem remove o item. Débitos já feitos no banco não são estornados.
func (s *Service) DeleteWorkItem(ctx context.Context, id uint) error {
	item, err := loadWorkItem(ctx, s.store, id)
	if err != nil {
		return err
	}
	err = s.withCase(ctx, item.CaseID, func(tx Store) error {
		return tx.WorkItems().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("excluir item %d: %w", id, err)
	}
	if item.CaseID != nil && item.Status != models.StatusWaiting {
		s.log.WithFields(logrus.Fields{
			"work_item_id": id,
			"case_id":      *item.CaseID,
			"status":       item.Status,
		}).Warn("item excluído após início da produção; débito do banco mantido")
	}
	return nil
}
