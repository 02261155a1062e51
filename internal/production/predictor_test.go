package production

import (
	"testing"
	"time"

	"aligner-lab-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func installed(upper, lower, deliveredUpper, deliveredLower int) *models.Case {
	c := planCase(upper, lower)
	c.ChangeEveryDays = 7
	c.Installation = &models.Installation{
		InstalledAt:    date(time.January, 1),
		DeliveredUpper: deliveredUpper,
		DeliveredLower: deliveredLower,
	}
	return c
}

func TestPlannedChangeDates(t *testing.T) {
	assert.Nil(t, PlannedChangeDates(planCase(3, 3)))

	c := installed(5, 0, 0, 0)
	c.Installation.ActualChangeDates = []models.ActualChangeDate{{TrayNumber: 3, ChangedAt: date(time.January, 20)}}
	assert.Equal(t, []time.Time{
		date(time.January, 1),
		date(time.January, 8),
		date(time.January, 20),
		date(time.January, 27),
		date(time.February, 3),
	}, PlannedChangeDates(c))

	d, ok := DueDateForTray(c, 4)
	require.True(t, ok)
	assert.Equal(t, date(time.January, 27), d)
	_, ok = DueDateForTray(c, 6)
	assert.False(t, ok)
}

func TestGetNextDueDateUsesLaggingArch(t *testing.T) {
	c := installed(10, 8, 4, 2)
	next, ok := GetNextDueDate(c)
	require.True(t, ok)
	assert.Equal(t, NextDue{TrayNumber: 3, DueDate: date(time.January, 15)}, next)

	// arcada inferior concluída ainda define o contador
	c = installed(24, 20, 22, 20)
	next, ok = GetNextDueDate(c)
	require.True(t, ok)
	assert.Equal(t, 21, next.TrayNumber)

	c = installed(10, 0, 4, 0)
	next, ok = GetNextDueDate(c)
	require.True(t, ok)
	assert.Equal(t, 5, next.TrayNumber)

	_, ok = GetNextDueDate(installed(3, 3, 3, 3))
	assert.False(t, ok)
}

func TestGetReplenishmentAlerts(t *testing.T) {
	today := date(time.January, 2)
	tests := []struct {
		name      string
		delivered int
		want      AlertLevel
		days      int
	}{
		{"vencida", 0, AlertUrgent, -1},
		{"em até dez dias", 1, AlertElevated, 6},
		{"em até quinze dias", 2, AlertInfo, 13},
		{"fora da janela", 3, "", 0},
		{"tudo entregue", 10, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := GetReplenishmentAlerts(installed(10, 0, tt.delivered, 0), today)
			if tt.want == "" {
				assert.Empty(t, alerts)
				return
			}
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.want, alerts[0].Level)
			assert.Equal(t, tt.days, alerts[0].DaysToDue)
			assert.Equal(t, tt.delivered+1, alerts[0].TrayNumber)
		})
	}
}

func TestReplenishmentAlertPicksMostUrgentArch(t *testing.T) {
	c := installed(10, 10, 3, 1)
	alerts := GetReplenishmentAlerts(c, date(time.January, 2))
	require.Len(t, alerts, 1)
	assert.Equal(t, models.ArchLower, alerts[0].Arch)
	assert.Equal(t, 2, alerts[0].TrayNumber)
	assert.Equal(t, AlertElevated, alerts[0].Level)

	c.Installation.PatientDeliveryLots = []models.PatientDeliveryLot{{Arch: models.ArchLower, FromTray: 2, ToTray: 3}}
	assert.Empty(t, GetReplenishmentAlerts(c, date(time.January, 2)))

	assert.Nil(t, GetReplenishmentAlerts(planCase(4, 4), date(time.January, 2)))
}
