package dashboard

import (
	"fmt"

	"aligner-lab-backend/internal/config"
	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	"github.com/gofiber/fiber/v2"
)

type BoardColumn struct {
	Status     models.WorkItemStatus   `json:"status"`
	Count      int                     `json:"count"`
	ByPriority map[models.Priority]int `json:"by_priority"`
	Items      []models.WorkItem       `json:"items"`
}

// BuildBoard agrupa os itens nas colunas da fila, na ordem da pipeline
func BuildBoard(items []models.WorkItem) []BoardColumn {
	cols := make([]BoardColumn, len(models.WorkItemPipeline))
	for i, st := range models.WorkItemPipeline {
		cols[i] = BoardColumn{Status: st, ByPriority: map[models.Priority]int{}, Items: []models.WorkItem{}}
	}
	for _, w := range items {
		i := w.Status.Index()
		if i < 0 {
			continue
		}
		cols[i].Count++
		cols[i].ByPriority[w.Priority]++
		cols[i].Items = append(cols[i].Items, w)
	}
	return cols
}

// GET /api/dashboard/board?case_id=1
func BoardHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var filter production.WorkItemFilter
		if v := c.Query("case_id"); v != "" {
			var id uint
			if _, err := fmt.Sscan(v, &id); err != nil || id == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "case_id inválido")
			}
			filter.CaseID = &id
		}

		items, err := svc.ListWorkItems(c.UserContext(), filter)
		if err != nil {
			config.LogError(config.GetLogger(), "dashboard", "BoardHandler", "list work items", nil, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível carregar a fila")
		}
		return c.JSON(BuildBoard(items))
	}
}
