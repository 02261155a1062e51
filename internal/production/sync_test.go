package production

import (
	"testing"

	"aligner-lab-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planCase(upper, lower int) *models.Case {
	c := &models.Case{ID: 1, Code: "ALN-1", TotalTraysUpper: upper, TotalTraysLower: lower, Status: models.CaseStatusPlanning}
	for n := 1; n <= c.MaxTray(); n++ {
		c.Trays = append(c.Trays, models.Tray{TrayNumber: n, State: models.TrayPending})
	}
	return c
}

func TestBatchRange(t *testing.T) {
	tests := []struct {
		name string
		lots []models.DeliveryLot
		item models.WorkItem
		want Range
	}{
		{
			name: "ambos sem entregas",
			item: models.WorkItem{Arch: models.ArchBoth, TrayNumber: 1, QtyUpper: 3, QtyLower: 3},
			want: Range{From: 1, To: 3},
		},
		{
			name: "limitado ao total da arcada",
			item: models.WorkItem{Arch: models.ArchUpper, TrayNumber: 23, QtyUpper: 5},
			want: Range{From: 23, To: 24},
		},
		{
			name: "perna zerada usa o total combinado",
			item: models.WorkItem{Arch: models.ArchLower, TrayNumber: 2, QtyUpper: 2},
			want: Range{From: 2, To: 3},
		},
		{
			name: "começa depois do último lote entregue",
			lots: []models.DeliveryLot{{Arch: models.ArchBoth, FromTray: 1, ToTray: 4}},
			item: models.WorkItem{Arch: models.ArchBoth, TrayNumber: 2, QtyUpper: 2, QtyLower: 2},
			want: Range{From: 5, To: 6},
		},
		{
			name: "interseção vazia quando as arcadas divergem",
			lots: []models.DeliveryLot{{Arch: models.ArchUpper, FromTray: 1, ToTray: 3}},
			item: models.WorkItem{Arch: models.ArchBoth, TrayNumber: 1, QtyUpper: 3, QtyLower: 3},
			want: Range{From: 1, To: 0},
		},
		{
			name: "sem arcada",
			item: models.WorkItem{TrayNumber: 1, QtyUpper: 1},
			want: Range{From: 1, To: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := planCase(24, 20)
			c.DeliveryLots = tt.lots
			item := tt.item
			got := BatchRange(c, &item)
			assert.Equal(t, tt.want.Empty(), got.Empty())
			if !tt.want.Empty() {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCanApply(t *testing.T) {
	assert.False(t, canApply(models.TrayDelivered, models.TrayRework))
	assert.False(t, canApply(models.TrayDelivered, models.TrayProduction))
	assert.False(t, canApply(models.TrayReady, models.TrayProduction))
	assert.False(t, canApply(models.TrayProduction, models.TrayPending))
	assert.True(t, canApply(models.TrayPending, models.TrayPending))
	assert.True(t, canApply(models.TrayReady, models.TrayRework))
	assert.True(t, canApply(models.TrayRework, models.TrayProduction))
	assert.True(t, canApply(models.TrayProduction, models.TrayReady))
}

func TestApplyTransitionKeepsReadyTrays(t *testing.T) {
	c := planCase(6, 6)
	c.Trays[1].State = models.TrayReady

	item := &models.WorkItem{Arch: models.ArchBoth, TrayNumber: 1, QtyUpper: 3, QtyLower: 3, Status: models.StatusProduction}
	changed, err := ApplyTransition(c, item, true)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, changed)
	assert.Equal(t, models.TrayReady, c.Tray(2).State)
	assert.Equal(t, models.CaseStatusProduction, c.Status)

	_, err = ApplyTransition(c, &models.WorkItem{Arch: models.ArchUpper, TrayNumber: 7, QtyUpper: 1, Status: models.StatusProduction}, true)
	assert.ErrorIs(t, err, ErrValidation)

	changed, err = ApplyTransition(c, &models.WorkItem{Arch: models.ArchUpper, TrayNumber: 99}, false)
	assert.NoError(t, err)
	assert.Nil(t, changed)
}

func TestRecomputeLifecycle(t *testing.T) {
	c := planCase(2, 0)
	RecomputeLifecycle(c)
	assert.Equal(t, models.CaseStatusPlanning, c.Status)

	c.Trays[0].State = models.TrayRework
	RecomputeLifecycle(c)
	assert.Equal(t, models.CaseStatusProduction, c.Status)

	c.DeliveryLots = []models.DeliveryLot{{Arch: models.ArchUpper, FromTray: 1, ToTray: 1}}
	RecomputeLifecycle(c)
	assert.Equal(t, models.CaseStatusDelivery, c.Status)

	c.Trays[0].State = models.TrayDelivered
	c.Trays[1].State = models.TrayDelivered
	RecomputeLifecycle(c)
	assert.Equal(t, models.CaseStatusFinalized, c.Status)
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, CheckTransition(models.StatusWaiting, models.StatusProduction))
	assert.NoError(t, CheckTransition(models.StatusReady, models.StatusQuality))
	assert.ErrorIs(t, CheckTransition(models.StatusWaiting, models.StatusQuality), ErrInvalidTransition)
	assert.ErrorIs(t, CheckTransition(models.StatusReady, models.StatusReady), ErrInvalidTransition)
	assert.ErrorIs(t, CheckTransition("", models.StatusWaiting), ErrInvalidTransition)
}
