package dashboard

import (
	"testing"

	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectAlertsOrdersUrgentFirst(t *testing.T) {
	cases := []models.Case{{ID: 1, Code: "A"}, {ID: 2, Code: "B"}, {ID: 3, Code: "C"}, {ID: 4, Code: "D"}}
	byCase := map[uint][]production.Alert{
		1: {{CaseID: 1, CaseCode: "A", Level: production.AlertInfo, DaysToDue: 12}},
		2: {{CaseID: 2, CaseCode: "B", Level: production.AlertUrgent, DaysToDue: -1}},
		3: {{CaseID: 3, CaseCode: "C", Level: production.AlertElevated, DaysToDue: 3}},
		4: nil,
	}

	resp := CollectAlerts(cases, func(c *models.Case) []production.Alert { return byCase[c.ID] })

	require.Equal(t, 3, resp.Total)
	assert.Equal(t, []string{"B", "C", "A"}, []string{resp.Alerts[0].CaseCode, resp.Alerts[1].CaseCode, resp.Alerts[2].CaseCode})
	assert.Equal(t, 1, resp.ByLevel[production.AlertUrgent])
}

func TestCollectAlertsEmpty(t *testing.T) {
	resp := CollectAlerts(nil, nil)
	assert.Zero(t, resp.Total)
	assert.NotNil(t, resp.Alerts)
}

func TestBuildBoard(t *testing.T) {
	items := []models.WorkItem{
		{ID: 1, Status: models.StatusWaiting, Priority: models.PriorityHigh},
		{ID: 2, Status: models.StatusWaiting, Priority: models.PriorityNormal},
		{ID: 3, Status: models.StatusReady, Priority: models.PriorityNormal},
		{ID: 4, Status: "desconhecido"},
	}

	cols := BuildBoard(items)
	require.Len(t, cols, 4)
	assert.Equal(t, models.StatusWaiting, cols[0].Status)
	assert.Equal(t, 2, cols[0].Count)
	assert.Equal(t, 1, cols[0].ByPriority[models.PriorityHigh])
	assert.Zero(t, cols[1].Count)
	assert.Empty(t, cols[1].Items)
	assert.Equal(t, 1, cols[3].Count)
}
