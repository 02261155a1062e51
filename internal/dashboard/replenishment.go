package dashboard

import (
	"sort"

	"aligner-lab-backend/internal/config"
	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	"github.com/gofiber/fiber/v2"
)

type AlertsResponse struct {
	Total   int                           `json:"total"`
	ByLevel map[production.AlertLevel]int `json:"by_level"`
	Alerts  []production.Alert            `json:"alerts"`
}

var levelRank = map[production.AlertLevel]int{
	production.AlertUrgent:   0,
	production.AlertElevated: 1,
	production.AlertInfo:     2,
}

// CollectAlerts avalia cada caso separadamente; urgentes primeiro, depois menor prazo
func CollectAlerts(cases []models.Case, eval func(c *models.Case) []production.Alert) AlertsResponse {
	resp := AlertsResponse{ByLevel: map[production.AlertLevel]int{}, Alerts: []production.Alert{}}
	for i := range cases {
		for _, a := range eval(&cases[i]) {
			resp.Alerts = append(resp.Alerts, a)
			resp.ByLevel[a.Level]++
		}
	}
	sort.SliceStable(resp.Alerts, func(i, j int) bool {
		a, b := resp.Alerts[i], resp.Alerts[j]
		if levelRank[a.Level] != levelRank[b.Level] {
			return levelRank[a.Level] < levelRank[b.Level]
		}
		if a.DaysToDue != b.DaysToDue {
			return a.DaysToDue < b.DaysToDue
		}
		return a.CaseCode < b.CaseCode
	})
	resp.Total = len(resp.Alerts)
	return resp
}

// GET /api/dashboard/replenishment-alerts?level=urgente
func ReplenishmentAlertsHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cases, err := svc.ListCases(c.UserContext(), models.CaseStatusProduction, models.CaseStatusDelivery)
		if err != nil {
			config.LogError(config.GetLogger(), "dashboard", "ReplenishmentAlertsHandler", "list cases", nil, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível carregar os casos")
		}

		resp := CollectAlerts(cases, svc.ReplenishmentAlerts)
		if level := production.AlertLevel(c.Query("level")); level != "" {
			filtered := []production.Alert{}
			for _, a := range resp.Alerts {
				if a.Level == level {
					filtered = append(filtered, a)
				}
			}
			resp.Alerts = filtered
			resp.Total = len(filtered)
		}
		return c.JSON(resp)
	}
}
