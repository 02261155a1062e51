package memstore

import (
	"context"
	"errors"
	"testing"

	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCase(code string) *models.Case {
	return &models.Case{
		Code:            code,
		PatientName:     "Paciente",
		TotalTraysUpper: 2,
		Status:          models.CaseStatusPlanning,
		Trays: []models.Tray{
			{TrayNumber: 1, State: models.TrayPending},
			{TrayNumber: 2, State: models.TrayPending},
		},
	}
}

func TestCaseRepository_CreateAndGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := newCase("ALN-1")
	require.NoError(t, s.Cases().Create(ctx, c))
	require.NotZero(t, c.ID)
	assert.Equal(t, c.ID, c.Trays[0].CaseID)
	assert.NotZero(t, c.Trays[1].ID)

	got, err := s.Cases().Get(ctx, c.ID)
	require.NoError(t, err)
	got.Trays[0].State = models.TrayDelivered

	again, err := s.Cases().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TrayPending, again.Trays[0].State, "alteração sem Save não pode vazar")
}

func TestCaseRepository_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Cases().Create(ctx, newCase("ALN-1")))

	err := s.Cases().Create(ctx, newCase("ALN-1"))
	assert.ErrorIs(t, err, production.ErrValidation)
}

func TestCaseRepository_GetMissing(t *testing.T) {
	_, err := New().Cases().Get(context.Background(), 99)
	assert.ErrorIs(t, err, production.ErrNotFound)
}

func TestAtomic_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := newCase("ALN-1")
	require.NoError(t, s.Cases().Create(ctx, c))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx production.Store) error {
		cur, err := tx.Cases().Get(ctx, c.ID)
		require.NoError(t, err)
		cur.Trays[0].State = models.TrayProduction
		require.NoError(t, tx.Cases().Save(ctx, cur))
		require.NoError(t, tx.Bank().Create(ctx, []models.BankEntry{{CaseID: c.ID, Arch: models.ArchUpper, TrayNumber: 1, Status: models.BankAvailable}}))

		// dentro da transação a escrita é visível
		inside, err := tx.Cases().Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TrayProduction, inside.Trays[0].State)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Cases().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TrayPending, got.Trays[0].State)

	has, err := s.Bank().HasAny(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestAtomic_Commits(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Atomic(ctx, func(tx production.Store) error {
		return tx.WorkItems().Create(ctx, &models.WorkItem{Status: models.StatusWaiting, RequestKind: models.RequestProduction})
	})
	require.NoError(t, err)

	items, err := s.WorkItems().List(ctx, production.WorkItemFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestWorkItemRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	caseID := uint(5)
	require.NoError(t, s.WorkItems().Create(ctx, &models.WorkItem{CaseID: &caseID, Status: models.StatusWaiting, RequestKind: models.RequestReplacement}))
	require.NoError(t, s.WorkItems().Create(ctx, &models.WorkItem{CaseID: &caseID, Status: models.StatusProduction, RequestKind: models.RequestProduction}))
	require.NoError(t, s.WorkItems().Create(ctx, &models.WorkItem{Status: models.StatusWaiting, RequestKind: models.RequestProduction}))

	byCase, err := s.WorkItems().List(ctx, production.WorkItemFilter{CaseID: &caseID})
	require.NoError(t, err)
	assert.Len(t, byCase, 2)

	repl, err := s.WorkItems().List(ctx, production.WorkItemFilter{CaseID: &caseID, RequestKind: models.RequestReplacement})
	require.NoError(t, err)
	assert.Len(t, repl, 1)

	waiting, err := s.WorkItems().List(ctx, production.WorkItemFilter{Status: models.StatusWaiting})
	require.NoError(t, err)
	assert.Len(t, waiting, 2)

	require.NoError(t, s.WorkItems().Delete(ctx, waiting[0].ID))
	assert.ErrorIs(t, s.WorkItems().Delete(ctx, waiting[0].ID), production.ErrNotFound)
}

func TestBankRepository_SaveUnknownEntry(t *testing.T) {
	err := New().Bank().Save(context.Background(), []models.BankEntry{{ID: 42}})
	assert.ErrorIs(t, err, production.ErrNotFound)
}
