package production

import (
	"context"
	"fmt"
	"time"

	"aligner-lab-backend/internal/models"

	"github.com/sirupsen/logrus"
)

type NewCase struct {
	Code            string `json:"code" validate:"required,max=50"`
	PatientName     string `json:"patient_name" validate:"required,max=150"`
	ProductType     string `json:"product_type" validate:"max=50"`
	TotalTraysUpper int    `json:"total_trays_upper" validate:"gte=0,lte=200"`
	TotalTraysLower int    `json:"total_trays_lower" validate:"gte=0,lte=200"`
	ChangeEveryDays int    `json:"change_every_days" validate:"gte=0,lte=90"`
}

// CreateCase monta as placas 1..max(superior, inferior) e já cria o banco de
// reposição na mesma transação.
func (s *Service) CreateCase(ctx context.Context, in NewCase) (*models.Case, error) {
	if err := checkPayload(in); err != nil {
		return nil, err
	}
	if in.TotalTraysUpper == 0 && in.TotalTraysLower == 0 {
		return nil, validationError("Informe o total de placas de pelo menos uma arcada")
	}
	if in.ChangeEveryDays == 0 {
		in.ChangeEveryDays = 7
	}

	c := &models.Case{
		Code:            in.Code,
		PatientName:     in.PatientName,
		ProductType:     in.ProductType,
		TotalTraysUpper: in.TotalTraysUpper,
		TotalTraysLower: in.TotalTraysLower,
		ChangeEveryDays: in.ChangeEveryDays,
		Status:          models.CaseStatusPlanning,
	}
	for n := 1; n <= c.MaxTray(); n++ {
		c.Trays = append(c.Trays, models.Tray{TrayNumber: n, State: models.TrayPending})
	}

	err := s.store.Atomic(ctx, func(tx Store) error {
		if err := tx.Cases().Create(ctx, c); err != nil {
			return fmt.Errorf("criar caso %s: %w", c.Code, err)
		}
		_, err := s.seedTx(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetCase(ctx context.Context, id uint) (*models.Case, error) {
	return loadCase(ctx, s.store, id)
}

func (s *Service) ListCases(ctx context.Context, statuses ...models.CaseStatus) ([]models.Case, error) {
	cases, err := s.store.Cases().List(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("listar casos: %w", err)
	}
	return cases, nil
}

type DeliveryLotInput struct {
	Arch                models.Arch `json:"arch" validate:"required,oneof=superior inferior ambos"`
	FromTray            int         `json:"from_tray" validate:"gte=1"`
	ToTray              int         `json:"to_tray" validate:"gtefield=FromTray"`
	DeliveredToDoctorAt time.Time   `json:"delivered_to_doctor_at" validate:"required"`
	Note                string      `json:"note" validate:"max=255"`
}

// RegisterDeliveryLot registra o lote entregue ao profissional: placas do caso
// viram entregue e o banco marca a faixa como entregue.
func (s *Service) RegisterDeliveryLot(ctx context.Context, caseID uint, in DeliveryLotInput) (*models.DeliveryLot, error) {
	if err := checkPayload(in); err != nil {
		return nil, err
	}
	var lot models.DeliveryLot
	err := s.withCase(ctx, &caseID, func(tx Store) error {
		c, err := loadCase(ctx, tx, caseID)
		if err != nil {
			return err
		}
		if in.ToTray > c.ArchTotal(in.Arch) {
			return validationError("Placa %d fora do intervalo 1..%d (%s)", in.ToTray, c.ArchTotal(in.Arch), in.Arch)
		}
		lot = models.DeliveryLot{
			CaseID:              caseID,
			Arch:                in.Arch,
			FromTray:            in.FromTray,
			ToTray:              in.ToTray,
			Quantity:            in.ToTray - in.FromTray + 1,
			DeliveredToDoctorAt: in.DeliveredToDoctorAt,
			Note:                in.Note,
		}
		c.DeliveryLots = append(c.DeliveryLots, lot)
		markTraysDelivered(c, lot)
		RecomputeLifecycle(c)
		if err := tx.Cases().Save(ctx, c); err != nil {
			return err
		}
		lot = c.DeliveryLots[len(c.DeliveryLots)-1]
		_, err = s.markDeliveredTx(ctx, tx, caseID, lot)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"case_id": caseID,
		"arch":    lot.Arch,
		"from":    lot.FromTray,
		"to":      lot.ToTray,
	}).Info("lote entregue ao profissional")
	return &lot, nil
}

// markTraysDelivered: só as placas da faixa do novo lote; cada uma fica
// entregue quando todas as arcadas que a possuem estão cobertas por algum lote.
// Placas em rework fora da faixa continuam aguardando a reconfecção.
func markTraysDelivered(c *models.Case, lot models.DeliveryLot) {
	for i := range c.Trays {
		t := &c.Trays[i]
		if t.State == models.TrayDelivered || t.TrayNumber < lot.FromTray || t.TrayNumber > lot.ToTray {
			continue
		}
		covered := true
		for _, leg := range c.ActiveArches() {
			if t.TrayNumber > c.ArchTotal(leg) {
				continue
			}
			if !lotCovers(c.DeliveryLots, leg, t.TrayNumber) {
				covered = false
				break
			}
		}
		if covered {
			t.State = models.TrayDelivered
			d := lot.DeliveredToDoctorAt
			t.DeliveredAt = &d
		}
	}
}

func lotCovers(lots []models.DeliveryLot, leg models.Arch, tray int) bool {
	for _, l := range lots {
		if l.Arch.Includes(leg) && tray >= l.FromTray && tray <= l.ToTray {
			return true
		}
	}
	return false
}

type ReworkOutcome struct {
	ReworkResult
	WorkItems []models.WorkItem `json:"work_items"`
}

// ReworkTray descarta a placa (banco), marca rework no caso e coloca na fila
// uma reconfecção e uma produção para a mesma placa.
func (s *Service) ReworkTray(ctx context.Context, caseID uint, tray int, arch models.Arch, source *uint) (*ReworkOutcome, error) {
	if !arch.Valid() {
		return nil, validationError("Arcada inválida: %q", arch)
	}
	out := &ReworkOutcome{}
	err := s.withCase(ctx, &caseID, func(tx Store) error {
		c, err := loadCase(ctx, tx, caseID)
		if err != nil {
			return err
		}
		t := c.Tray(tray)
		if t == nil {
			return validationError("Placa %d fora do intervalo 1..%d do caso %s", tray, c.MaxTray(), c.Code)
		}
		eff := effectiveArch(c, arch, tray)
		if eff == "" {
			return validationError("Placa %d não existe na arcada %s", tray, arch)
		}

		res, err := s.reworkBankTx(ctx, tx, caseID, tray, eff, source)
		if err != nil {
			return err
		}
		out.ReworkResult = res

		t.State = models.TrayRework
		RecomputeLifecycle(c)
		if err := tx.Cases().Save(ctx, c); err != nil {
			return err
		}

		for _, kind := range []models.RequestKind{models.RequestRework, models.RequestProduction} {
			w := &models.WorkItem{
				CaseID:      &c.ID,
				ProductType: c.ProductType,
				Arch:        eff,
				TrayNumber:  tray,
				RequestKind: kind,
				RequestCode: c.Code,
				Status:      models.StatusWaiting,
				Priority:    models.PriorityNormal,
				Notes:       fmt.Sprintf("Reconfecção da placa %d", tray),
			}
			if kind == models.RequestRework {
				w.Priority = models.PriorityHigh
			}
			for _, leg := range eff.Legs() {
				if leg == models.ArchUpper {
					w.QtyUpper = 1
				} else {
					w.QtyLower = 1
				}
			}
			if err := tx.WorkItems().Create(ctx, w); err != nil {
				return fmt.Errorf("enfileirar %s: %w", kind, err)
			}
			out.WorkItems = append(out.WorkItems, *w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// effectiveArch: restringe "ambos" às arcadas que têm a placa
func effectiveArch(c *models.Case, arch models.Arch, tray int) models.Arch {
	var legs []models.Arch
	for _, leg := range arch.Legs() {
		if tray <= c.ArchTotal(leg) {
			legs = append(legs, leg)
		}
	}
	switch len(legs) {
	case 0:
		return ""
	case 1:
		return legs[0]
	}
	return models.ArchBoth
}

type InstallationInput struct {
	InstalledAt    time.Time `json:"installed_at" validate:"required"`
	DeliveredUpper int       `json:"delivered_upper" validate:"gte=0"`
	DeliveredLower int       `json:"delivered_lower" validate:"gte=0"`
}

// RecordInstallation registra (ou corrige) a instalação no paciente e
// recalcula as datas previstas das placas.
func (s *Service) RecordInstallation(ctx context.Context, caseID uint, in InstallationInput) (*models.Case, error) {
	if err := checkPayload(in); err != nil {
		return nil, err
	}
	return s.mutateCase(ctx, caseID, func(c *models.Case) error {
		if in.DeliveredUpper > c.TotalTraysUpper || in.DeliveredLower > c.TotalTraysLower {
			return validationError("Quantidade entregue maior que o total de placas")
		}
		if c.Installation == nil {
			c.Installation = &models.Installation{CaseID: c.ID}
		}
		c.Installation.InstalledAt = in.InstalledAt
		c.Installation.DeliveredUpper = in.DeliveredUpper
		c.Installation.DeliveredLower = in.DeliveredLower
		return nil
	})
}

type PatientDeliveryInput struct {
	Arch        models.Arch `json:"arch" validate:"required,oneof=superior inferior ambos"`
	FromTray    int         `json:"from_tray" validate:"gte=1"`
	ToTray      int         `json:"to_tray" validate:"gtefield=FromTray"`
	DeliveredAt time.Time   `json:"delivered_at" validate:"required"`
	Note        string      `json:"note" validate:"max=255"`
}

// RecordPatientDelivery: lote entregue do profissional ao paciente
func (s *Service) RecordPatientDelivery(ctx context.Context, caseID uint, in PatientDeliveryInput) (*models.Case, error) {
	if err := checkPayload(in); err != nil {
		return nil, err
	}
	return s.mutateCase(ctx, caseID, func(c *models.Case) error {
		if c.Installation == nil {
			return validationError("Registre a instalação antes das entregas ao paciente")
		}
		if in.ToTray > c.ArchTotal(in.Arch) {
			return validationError("Placa %d fora do intervalo 1..%d (%s)", in.ToTray, c.ArchTotal(in.Arch), in.Arch)
		}
		inst := c.Installation
		inst.PatientDeliveryLots = append(inst.PatientDeliveryLots, models.PatientDeliveryLot{
			Arch:        in.Arch,
			FromTray:    in.FromTray,
			ToTray:      in.ToTray,
			DeliveredAt: in.DeliveredAt,
			Note:        in.Note,
		})
		if in.Arch.Includes(models.ArchUpper) && in.ToTray > inst.DeliveredUpper {
			inst.DeliveredUpper = min(in.ToTray, c.TotalTraysUpper)
		}
		if in.Arch.Includes(models.ArchLower) && in.ToTray > inst.DeliveredLower {
			inst.DeliveredLower = min(in.ToTray, c.TotalTraysLower)
		}
		return nil
	})
}

// RecordActualChange: data real de troca; re-ancora a placa e as seguintes
func (s *Service) RecordActualChange(ctx context.Context, caseID uint, tray int, changedAt time.Time) (*models.Case, error) {
	if changedAt.IsZero() {
		return nil, validationError("Data de troca obrigatória")
	}
	return s.mutateCase(ctx, caseID, func(c *models.Case) error {
		if c.Installation == nil {
			return validationError("Registre a instalação antes das trocas")
		}
		if tray < 1 || tray > c.MaxTray() {
			return validationError("Placa %d fora do intervalo 1..%d do caso %s", tray, c.MaxTray(), c.Code)
		}
		inst := c.Installation
		for i := range inst.ActualChangeDates {
			if inst.ActualChangeDates[i].TrayNumber == tray {
				inst.ActualChangeDates[i].ChangedAt = changedAt
				return nil
			}
		}
		inst.ActualChangeDates = append(inst.ActualChangeDates, models.ActualChangeDate{TrayNumber: tray, ChangedAt: changedAt})
		return nil
	})
}

// mutateCase: carrega, aplica fn, recalcula datas previstas e ciclo de vida, grava
func (s *Service) mutateCase(ctx context.Context, caseID uint, fn func(c *models.Case) error) (*models.Case, error) {
	var out *models.Case
	err := s.withCase(ctx, &caseID, func(tx Store) error {
		c, err := loadCase(ctx, tx, caseID)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		applySchedule(c)
		RecomputeLifecycle(c)
		if err := tx.Cases().Save(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// applySchedule copia as datas previstas para Tray.DueDate
func applySchedule(c *models.Case) {
	dates := PlannedChangeDates(c)
	if dates == nil {
		return
	}
	for i := range c.Trays {
		n := c.Trays[i].TrayNumber
		if n >= 1 && n <= len(dates) {
			d := dates[n-1]
			c.Trays[i].DueDate = &d
		}
	}
}
