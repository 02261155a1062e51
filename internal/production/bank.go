package production

import (
	"context"
	"fmt"
	"sort"
	"time"

	"aligner-lab-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// SeedEntries: uma linha disponivel por placa 1..total, por arcada
func SeedEntries(caseID uint, totalUpper, totalLower int) []models.BankEntry {
	entries := make([]models.BankEntry, 0, totalUpper+totalLower)
	for n := 1; n <= totalUpper; n++ {
		entries = append(entries, models.BankEntry{CaseID: caseID, Arch: models.ArchUpper, TrayNumber: n, Status: models.BankAvailable})
	}
	for n := 1; n <= totalLower; n++ {
		entries = append(entries, models.BankEntry{CaseID: caseID, Arch: models.ArchLower, TrayNumber: n, Status: models.BankAvailable})
	}
	return entries
}

// SelectForDebit: índices das primeiras n linhas disponíveis da arcada, sem
// repetir placa (fica a primeira ocorrência), em ordem crescente de placa.
// Devolve também o total disponível.
func SelectForDebit(entries []models.BankEntry, leg models.Arch, n int) ([]int, int) {
	seen := map[int]bool{}
	var idx []int
	for i, e := range entries {
		if e.Arch != leg || e.Status != models.BankAvailable || seen[e.TrayNumber] {
			continue
		}
		seen[e.TrayNumber] = true
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return entries[idx[a]].TrayNumber < entries[idx[b]].TrayNumber
	})
	available := len(idx)
	if n > available {
		return nil, available
	}
	return idx[:n], available
}

// DebitRequest: consumo do banco para um item entrando em produção
type DebitRequest struct {
	CaseID           uint
	Arch             models.Arch
	QtyUpper         int
	QtyLower         int
	SourceWorkItemID *uint
}

func debitRequestFor(item *models.WorkItem) DebitRequest {
	req := DebitRequest{Arch: item.Arch, SourceWorkItemID: &item.ID}
	if item.CaseID != nil {
		req.CaseID = *item.CaseID
	}
	for _, leg := range item.Arch.Legs() {
		switch leg {
		case models.ArchUpper:
			req.QtyUpper = item.PlannedQty(leg)
		case models.ArchLower:
			req.QtyLower = item.PlannedQty(leg)
		}
	}
	return req
}

func (r DebitRequest) qty(leg models.Arch) int {
	if leg == models.ArchUpper {
		return r.QtyUpper
	}
	return r.QtyLower
}

type DebitResult struct {
	Upper []int `json:"upper"` // placas consumidas
	Lower []int `json:"lower"`
}

// Debit valida todas as pernas antes de alterar qualquer linha: ou as duas
// arcadas são debitadas, ou nenhuma.
func Debit(entries []models.BankEntry, req DebitRequest) (DebitResult, []int, error) {
	legs := req.Arch.Legs()
	if len(legs) == 0 {
		return DebitResult{}, nil, validationError("Arcada obrigatória para debitar o banco")
	}

	selected := map[models.Arch][]int{}
	for _, leg := range legs {
		n := req.qty(leg)
		if n <= 0 {
			return DebitResult{}, nil, validationError("Quantidade deve ser maior que zero (%s)", leg)
		}
		idx, available := SelectForDebit(entries, leg, n)
		if idx == nil {
			return DebitResult{}, nil, insufficientBalance(leg, available, n)
		}
		selected[leg] = idx
	}

	var res DebitResult
	var touched []int
	for _, leg := range legs {
		for _, i := range selected[leg] {
			entries[i].Status = models.BankProduction
			entries[i].SourceWorkItemID = req.SourceWorkItemID
			touched = append(touched, i)
			if leg == models.ArchUpper {
				res.Upper = append(res.Upper, entries[i].TrayNumber)
			} else {
				res.Lower = append(res.Lower, entries[i].TrayNumber)
			}
		}
	}
	return res, touched, nil
}

// DebitedBy: o item já consumiu linhas do banco em um início anterior
func DebitedBy(entries []models.BankEntry, workItemID uint) bool {
	for _, e := range entries {
		if e.SourceWorkItemID != nil && *e.SourceWorkItemID == workItemID &&
			(e.Status == models.BankProduction || e.Status == models.BankDelivered) {
			return true
		}
	}
	return false
}

// MarkDeliveredEntries: faixa entregue ao profissional; defeituosa não volta.
func MarkDeliveredEntries(entries []models.BankEntry, arch models.Arch, r Range, at time.Time) []int {
	var touched []int
	for i := range entries {
		e := &entries[i]
		if !arch.Includes(e.Arch) || !r.Contains(e.TrayNumber) || e.Status == models.BankDefective {
			continue
		}
		e.Status = models.BankDelivered
		d := at
		e.DeliveredAt = &d
		touched = append(touched, i)
	}
	return touched
}

type ReworkResult struct {
	Defective int `json:"defective"`
	Restored  int `json:"restored"`
}

// ReworkEntries descarta as linhas da placa e cria uma disponivel nova por
// arcada, mesmo que não existisse linha anterior.
func ReworkEntries(entries []models.BankEntry, caseID uint, tray int, arch models.Arch, source *uint) ([]int, []models.BankEntry, ReworkResult) {
	var res ReworkResult
	var touched []int
	var fresh []models.BankEntry
	for _, leg := range arch.Legs() {
		for i := range entries {
			e := &entries[i]
			if e.Arch != leg || e.TrayNumber != tray || e.Status == models.BankDefective {
				continue
			}
			e.Status = models.BankDefective
			if source != nil {
				src := *source
				e.SourceWorkItemID = &src
			}
			touched = append(touched, i)
			res.Defective++
		}
		fresh = append(fresh, models.BankEntry{
			CaseID:     caseID,
			Arch:       leg,
			TrayNumber: tray,
			Status:     models.BankAvailable,
		})
		res.Restored++
	}
	return touched, fresh, res
}

type ArchSummary struct {
	Contracted              int `json:"contracted"`
	InProductionOrDelivered int `json:"in_production_or_delivered"`
	Available               int `json:"available"`
	Rework                  int `json:"rework"`
	Defective               int `json:"defective"`
}

type BankSummary struct {
	CaseID uint                        `json:"case_id"`
	Total  ArchSummary                 `json:"total"`
	ByArch map[models.Arch]ArchSummary `json:"by_arch"`
}

func Summarize(caseID uint, entries []models.BankEntry) BankSummary {
	out := BankSummary{CaseID: caseID, ByArch: map[models.Arch]ArchSummary{}}
	for _, e := range entries {
		a := out.ByArch[e.Arch]
		count(&a, e.Status)
		out.ByArch[e.Arch] = a
		count(&out.Total, e.Status)
	}
	return out
}

func count(s *ArchSummary, st models.BankStatus) {
	if st != models.BankDefective {
		s.Contracted++
	}
	switch st {
	case models.BankAvailable:
		s.Available++
	case models.BankProduction, models.BankDelivered:
		s.InProductionOrDelivered++
	case models.BankRework:
		s.Rework++
	case models.BankDefective:
		s.Defective++
	}
}

func pick(entries []models.BankEntry, idx []int) []models.BankEntry {
	out := make([]models.BankEntry, 0, len(idx))
	for _, i := range idx {
		out = append(out, entries[i])
	}
	return out
}

// SeedReplacementBank cria o banco do caso uma única vez. Se já existe
// qualquer linha para o caso nada é feito (retorna 0).
func (s *Service) SeedReplacementBank(ctx context.Context, caseID uint) (int, error) {
	var created int
	err := s.withCase(ctx, &caseID, func(tx Store) error {
		var err error
		created, err = s.seedTx(ctx, tx, caseID)
		return err
	})
	return created, err
}

func (s *Service) seedTx(ctx context.Context, tx Store, caseID uint) (int, error) {
	c, err := loadCase(ctx, tx, caseID)
	if err != nil {
		return 0, err
	}
	exists, err := tx.Bank().HasAny(ctx, caseID)
	if err != nil {
		return 0, fmt.Errorf("verificar banco do caso %d: %w", caseID, err)
	}
	if exists {
		return 0, nil
	}
	entries := SeedEntries(caseID, c.TotalTraysUpper, c.TotalTraysLower)
	if len(entries) == 0 {
		return 0, nil
	}
	if err := tx.Bank().Create(ctx, entries); err != nil {
		return 0, fmt.Errorf("criar banco do caso %d: %w", caseID, err)
	}
	s.log.WithFields(logrus.Fields{"case_id": caseID, "entries": len(entries)}).Info("banco de reposição criado")
	return len(entries), nil
}

// DebitReplacementBank consome placas disponíveis para o item.
func (s *Service) DebitReplacementBank(ctx context.Context, item *models.WorkItem) (DebitResult, error) {
	if item == nil || item.CaseID == nil {
		return DebitResult{}, validationError("Item sem caso vinculado não debita o banco")
	}
	var res DebitResult
	err := s.withCase(ctx, item.CaseID, func(tx Store) error {
		var err error
		res, err = s.debitTx(ctx, tx, item)
		return err
	})
	return res, err
}

func (s *Service) debitTx(ctx context.Context, tx Store, item *models.WorkItem) (DebitResult, error) {
	req := debitRequestFor(item)
	entries, err := tx.Bank().ListByCase(ctx, req.CaseID)
	if err != nil {
		return DebitResult{}, fmt.Errorf("listar banco do caso %d: %w", req.CaseID, err)
	}
	if DebitedBy(entries, item.ID) {
		s.log.WithFields(logrus.Fields{
			"case_id":      req.CaseID,
			"work_item_id": item.ID,
		}).Info("item já debitado; banco mantido")
		return DebitResult{}, nil
	}
	res, touched, err := Debit(entries, req)
	if err != nil {
		return DebitResult{}, err
	}
	if err := tx.Bank().Save(ctx, pick(entries, touched)); err != nil {
		return DebitResult{}, fmt.Errorf("gravar débito do caso %d: %w", req.CaseID, err)
	}
	s.log.WithFields(logrus.Fields{
		"case_id":      req.CaseID,
		"work_item_id": item.ID,
		"upper":        res.Upper,
		"lower":        res.Lower,
	}).Info("banco de reposição debitado")
	return res, nil
}

// MarkDelivered marca no banco a faixa do lote entregue ao profissional.
func (s *Service) MarkDelivered(ctx context.Context, caseID uint, lot models.DeliveryLot) (int, error) {
	var n int
	err := s.withCase(ctx, &caseID, func(tx Store) error {
		var err error
		n, err = s.markDeliveredTx(ctx, tx, caseID, lot)
		return err
	})
	return n, err
}

func (s *Service) markDeliveredTx(ctx context.Context, tx Store, caseID uint, lot models.DeliveryLot) (int, error) {
	entries, err := tx.Bank().ListByCase(ctx, caseID)
	if err != nil {
		return 0, fmt.Errorf("listar banco do caso %d: %w", caseID, err)
	}
	touched := MarkDeliveredEntries(entries, lot.Arch, Range{From: lot.FromTray, To: lot.ToTray}, lot.DeliveredToDoctorAt)
	if err := tx.Bank().Save(ctx, pick(entries, touched)); err != nil {
		return 0, fmt.Errorf("gravar entrega no banco do caso %d: %w", caseID, err)
	}
	return len(touched), nil
}

// ReworkBank: descarte + reposição de estoque, apenas no banco.
func (s *Service) ReworkBank(ctx context.Context, caseID uint, tray int, arch models.Arch, source *uint) (ReworkResult, error) {
	var res ReworkResult
	err := s.withCase(ctx, &caseID, func(tx Store) error {
		var err error
		res, err = s.reworkBankTx(ctx, tx, caseID, tray, arch, source)
		return err
	})
	return res, err
}

func (s *Service) reworkBankTx(ctx context.Context, tx Store, caseID uint, tray int, arch models.Arch, source *uint) (ReworkResult, error) {
	if !arch.Valid() {
		return ReworkResult{}, validationError("Arcada inválida: %q", arch)
	}
	if tray < 1 {
		return ReworkResult{}, validationError("Placa inválida: %d", tray)
	}
	entries, err := tx.Bank().ListByCase(ctx, caseID)
	if err != nil {
		return ReworkResult{}, fmt.Errorf("listar banco do caso %d: %w", caseID, err)
	}
	touched, fresh, res := ReworkEntries(entries, caseID, tray, arch, source)
	if err := tx.Bank().Save(ctx, pick(entries, touched)); err != nil {
		return ReworkResult{}, fmt.Errorf("gravar descarte do caso %d: %w", caseID, err)
	}
	if err := tx.Bank().Create(ctx, fresh); err != nil {
		return ReworkResult{}, fmt.Errorf("repor estoque do caso %d: %w", caseID, err)
	}
	s.log.WithFields(logrus.Fields{
		"case_id":   caseID,
		"tray":      tray,
		"arch":      arch,
		"defective": res.Defective,
		"restored":  res.Restored,
	}).Info("placa enviada para reconfecção")
	return res, nil
}

// BankSummary: somente contagens
func (s *Service) BankSummary(ctx context.Context, caseID uint) (BankSummary, error) {
	if _, err := loadCase(ctx, s.store, caseID); err != nil {
		return BankSummary{}, err
	}
	entries, err := s.store.Bank().ListByCase(ctx, caseID)
	if err != nil {
		return BankSummary{}, fmt.Errorf("listar banco do caso %d: %w", caseID, err)
	}
	return Summarize(caseID, entries), nil
}
