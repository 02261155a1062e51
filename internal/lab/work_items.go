package lab

import (
	"fmt"
	"strings"

	"aligner-lab-backend/internal/audit"
	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	"github.com/gofiber/fiber/v2"
)

func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// POST /api/work-items
func CreateWorkItemHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body production.NewWorkItem
		if err := c.BodyParser(&body); err != nil {
			return fail(c, "CreateWorkItemHandler", fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido"))
		}

		w, err := svc.CreateWorkItem(c.UserContext(), body)
		if err != nil {
			return fail(c, "CreateWorkItemHandler", err)
		}

		record(c, audit.LogOptions{
			CaseID:      w.CaseID,
			EntityType:  "work_item",
			EntityID:    w.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Item %s (%s) placa %d", w.RequestCode, w.RequestKind, w.TrayNumber),
			After:       w,
		})
		return c.Status(fiber.StatusCreated).JSON(Result{OK: true, ID: w.ID})
	}
}

// GET /api/work-items?case_id=1&status=em_producao&request_kind=reconfeccao
func ListWorkItemsHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var filter production.WorkItemFilter
		if v := c.Query("case_id"); v != "" {
			var id uint
			if _, err := fmt.Sscan(v, &id); err != nil || id == 0 {
				return fail(c, "ListWorkItemsHandler", fiber.NewError(fiber.StatusBadRequest, "case_id inválido"))
			}
			filter.CaseID = &id
		}
		filter.Status = models.WorkItemStatus(c.Query("status"))
		filter.RequestKind = models.RequestKind(c.Query("request_kind"))

		items, err := svc.ListWorkItems(c.UserContext(), filter)
		if err != nil {
			return fail(c, "ListWorkItemsHandler", err)
		}
		if items == nil {
			items = []models.WorkItem{}
		}
		return c.JSON(items)
	}
}

// GET /api/work-items/:id
func GetWorkItemHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "GetWorkItemHandler", err)
		}
		w, err := svc.GetWorkItem(c.UserContext(), id)
		if err != nil {
			return fail(c, "GetWorkItemHandler", err)
		}
		return c.JSON(w)
	}
}

type transitionRequest struct {
	Status  models.WorkItemStatus `json:"status"`
	Confirm bool                  `json:"confirm"`
}

// POST /api/work-items/:id/transition
// {"status": "em_producao", "confirm": true}; sem confirm a entrada em produção é cancelada
func TransitionWorkItemHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "TransitionWorkItemHandler", err)
		}
		var body transitionRequest
		if err := c.BodyParser(&body); err != nil {
			return fail(c, "TransitionWorkItemHandler", fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido"))
		}
		if body.Status == "" {
			return fail(c, "TransitionWorkItemHandler", fiber.NewError(fiber.StatusBadRequest, "status é obrigatório"))
		}

		before, err := svc.GetWorkItem(c.UserContext(), id)
		if err != nil {
			return fail(c, "TransitionWorkItemHandler", err)
		}
		w, err := svc.TransitionWorkItem(c.UserContext(), id, body.Status, production.Confirmed(body.Confirm))
		if err != nil {
			return fail(c, "TransitionWorkItemHandler", err)
		}

		record(c, audit.LogOptions{
			CaseID:      w.CaseID,
			EntityType:  "work_item",
			EntityID:    w.ID,
			Action:      models.AuditActionTransition,
			Description: fmt.Sprintf("Item %d: %s → %s", w.ID, before.Status, w.Status),
			Before:      fiber.Map{"status": before.Status},
			After:       fiber.Map{"status": w.Status},
		})
		return c.JSON(Result{OK: true, ID: w.ID})
	}
}

// POST /api/work-items/:id/sync: reaplica o status atual nas placas do caso
func SyncWorkItemHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "SyncWorkItemHandler", err)
		}
		w, err := svc.GetWorkItem(c.UserContext(), id)
		if err != nil {
			return fail(c, "SyncWorkItemHandler", err)
		}
		if err := svc.SyncWorkItemToCaseTray(c.UserContext(), w); err != nil {
			return fail(c, "SyncWorkItemHandler", err)
		}
		record(c, audit.LogOptions{
			CaseID:      w.CaseID,
			EntityType:  "work_item",
			EntityID:    w.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Placas sincronizadas com o item %d (%s)", w.ID, w.Status),
		})
		return c.JSON(Result{OK: true, ID: w.ID})
	}
}

// DELETE /api/admin/work-items/:id
func DeleteWorkItemHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "DeleteWorkItemHandler", err)
		}
		w, err := svc.GetWorkItem(c.UserContext(), id)
		if err != nil {
			return fail(c, "DeleteWorkItemHandler", err)
		}
		if err := svc.DeleteWorkItem(c.UserContext(), id); err != nil {
			return fail(c, "DeleteWorkItemHandler", err)
		}
		record(c, audit.LogOptions{
			CaseID:      w.CaseID,
			EntityType:  "work_item",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Item %d (%s) excluído", id, w.RequestCode),
			Before:      w,
		})
		return c.JSON(Result{OK: true, ID: id})
	}
}
