package lab

import (
	"fmt"

	"aligner-lab-backend/internal/audit"
	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	"github.com/gofiber/fiber/v2"
)

type CaseResponse struct {
	*models.Case
	NextDue *production.NextDue     `json:"next_due,omitempty"`
	Alerts  []production.Alert      `json:"alerts"`
	Bank    *production.BankSummary `json:"bank,omitempty"`
}

// POST /api/cases
func CreateCaseHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body production.NewCase
		if err := c.BodyParser(&body); err != nil {
			return fail(c, "CreateCaseHandler", fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido"))
		}

		cs, err := svc.CreateCase(c.UserContext(), body)
		if err != nil {
			return fail(c, "CreateCaseHandler", err)
		}

		record(c, audit.LogOptions{
			CaseID:      &cs.ID,
			EntityType:  "case",
			EntityID:    cs.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Caso %s criado (%d sup / %d inf)", cs.Code, cs.TotalTraysUpper, cs.TotalTraysLower),
			After:       body,
		})
		return c.Status(fiber.StatusCreated).JSON(Result{OK: true, ID: cs.ID})
	}
}

// GET /api/cases?status=em_producao,em_entrega
func ListCasesHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var statuses []models.CaseStatus
		for _, s := range splitCSV(c.Query("status")) {
			statuses = append(statuses, models.CaseStatus(s))
		}
		cases, err := svc.ListCases(c.UserContext(), statuses...)
		if err != nil {
			return fail(c, "ListCasesHandler", err)
		}
		return c.JSON(cases)
	}
}

// GET /api/cases/:id
func GetCaseHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "GetCaseHandler", err)
		}
		cs, err := svc.GetCase(c.UserContext(), id)
		if err != nil {
			return fail(c, "GetCaseHandler", err)
		}
		bank, err := svc.BankSummary(c.UserContext(), id)
		if err != nil {
			return fail(c, "GetCaseHandler", err)
		}

		resp := CaseResponse{Case: cs, Alerts: svc.ReplenishmentAlerts(cs), Bank: &bank}
		if next, ok := production.GetNextDueDate(cs); ok {
			resp.NextDue = &next
		}
		if resp.Alerts == nil {
			resp.Alerts = []production.Alert{}
		}
		return c.JSON(resp)
	}
}

type installationRequest struct {
	InstalledAt    string `json:"installed_at"`
	DeliveredUpper int    `json:"delivered_upper"`
	DeliveredLower int    `json:"delivered_lower"`
}

// PUT /api/cases/:id/installation
func RecordInstallationHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "RecordInstallationHandler", err)
		}
		var body installationRequest
		if err := c.BodyParser(&body); err != nil {
			return fail(c, "RecordInstallationHandler", fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido"))
		}
		at, err := parseDate("installed_at", body.InstalledAt)
		if err != nil {
			return fail(c, "RecordInstallationHandler", err)
		}

		cs, err := svc.RecordInstallation(c.UserContext(), id, production.InstallationInput{
			InstalledAt:    at,
			DeliveredUpper: body.DeliveredUpper,
			DeliveredLower: body.DeliveredLower,
		})
		if err != nil {
			return fail(c, "RecordInstallationHandler", err)
		}

		record(c, audit.LogOptions{
			CaseID:      &id,
			EntityType:  "installation",
			EntityID:    cs.Installation.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Instalação do caso %s em %s", cs.Code, at.Format("2006-01-02")),
			After:       body,
		})
		return c.JSON(Result{OK: true, ID: cs.Installation.ID})
	}
}

type rangeRequest struct {
	Arch     models.Arch `json:"arch"`
	FromTray int         `json:"from_tray"`
	ToTray   int         `json:"to_tray"`
	Date     string      `json:"date"`
	Note     string      `json:"note"`
}

// POST /api/cases/:id/patient-deliveries
func RecordPatientDeliveryHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "RecordPatientDeliveryHandler", err)
		}
		var body rangeRequest
		if err := c.BodyParser(&body); err != nil {
			return fail(c, "RecordPatientDeliveryHandler", fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido"))
		}
		at, err := parseDate("date", body.Date)
		if err != nil {
			return fail(c, "RecordPatientDeliveryHandler", err)
		}

		cs, err := svc.RecordPatientDelivery(c.UserContext(), id, production.PatientDeliveryInput{
			Arch:        body.Arch,
			FromTray:    body.FromTray,
			ToTray:      body.ToTray,
			DeliveredAt: at,
			Note:        body.Note,
		})
		if err != nil {
			return fail(c, "RecordPatientDeliveryHandler", err)
		}

		record(c, audit.LogOptions{
			CaseID:      &id,
			EntityType:  "patient_delivery",
			EntityID:    cs.Installation.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Placas %d-%d (%s) entregues ao paciente", body.FromTray, body.ToTray, body.Arch),
			After:       body,
		})
		return c.JSON(Result{OK: true, ID: id})
	}
}

type actualChangeRequest struct {
	TrayNumber int    `json:"tray_number"`
	ChangedAt  string `json:"changed_at"`
}

// POST /api/cases/:id/actual-changes
func RecordActualChangeHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "RecordActualChangeHandler", err)
		}
		var body actualChangeRequest
		if err := c.BodyParser(&body); err != nil {
			return fail(c, "RecordActualChangeHandler", fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido"))
		}
		at, err := parseDate("changed_at", body.ChangedAt)
		if err != nil {
			return fail(c, "RecordActualChangeHandler", err)
		}

		if _, err := svc.RecordActualChange(c.UserContext(), id, body.TrayNumber, at); err != nil {
			return fail(c, "RecordActualChangeHandler", err)
		}

		record(c, audit.LogOptions{
			CaseID:      &id,
			EntityType:  "actual_change",
			EntityID:    uint(body.TrayNumber),
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Troca real da placa %d em %s", body.TrayNumber, at.Format("2006-01-02")),
			After:       body,
		})
		return c.JSON(Result{OK: true, ID: id})
	}
}

// POST /api/cases/:id/delivery-lots
func RegisterDeliveryLotHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "RegisterDeliveryLotHandler", err)
		}
		var body rangeRequest
		if err := c.BodyParser(&body); err != nil {
			return fail(c, "RegisterDeliveryLotHandler", fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido"))
		}
		at, err := parseDate("date", body.Date)
		if err != nil {
			return fail(c, "RegisterDeliveryLotHandler", err)
		}

		lot, err := svc.RegisterDeliveryLot(c.UserContext(), id, production.DeliveryLotInput{
			Arch:                body.Arch,
			FromTray:            body.FromTray,
			ToTray:              body.ToTray,
			DeliveredToDoctorAt: at,
			Note:                body.Note,
		})
		if err != nil {
			return fail(c, "RegisterDeliveryLotHandler", err)
		}

		record(c, audit.LogOptions{
			CaseID:      &id,
			EntityType:  "delivery_lot",
			EntityID:    lot.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Lote %d-%d (%s) entregue ao profissional", lot.FromTray, lot.ToTray, lot.Arch),
			After:       lot,
		})
		return c.Status(fiber.StatusCreated).JSON(Result{OK: true, ID: lot.ID})
	}
}

type reworkRequest struct {
	TrayNumber       int         `json:"tray_number"`
	Arch             models.Arch `json:"arch"`
	SourceWorkItemID *uint       `json:"source_work_item_id"`
}

// POST /api/cases/:id/rework
func ReworkTrayHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "ReworkTrayHandler", err)
		}
		var body reworkRequest
		if err := c.BodyParser(&body); err != nil {
			return fail(c, "ReworkTrayHandler", fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido"))
		}

		out, err := svc.ReworkTray(c.UserContext(), id, body.TrayNumber, body.Arch, body.SourceWorkItemID)
		if err != nil {
			return fail(c, "ReworkTrayHandler", err)
		}

		record(c, audit.LogOptions{
			CaseID:      &id,
			EntityType:  "tray",
			EntityID:    uint(body.TrayNumber),
			Action:      models.AuditActionTransition,
			Description: fmt.Sprintf("Placa %d (%s) enviada para reconfecção", body.TrayNumber, body.Arch),
			After:       out,
		})
		return c.JSON(fiber.Map{
			"ok":         true,
			"defective":  out.Defective,
			"restored":   out.Restored,
			"work_items": out.WorkItems,
		})
	}
}

// POST /api/cases/:id/bank/seed
func SeedBankHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "SeedBankHandler", err)
		}
		n, err := svc.SeedReplacementBank(c.UserContext(), id)
		if err != nil {
			return fail(c, "SeedBankHandler", err)
		}
		if n > 0 {
			record(c, audit.LogOptions{
				CaseID:      &id,
				EntityType:  "bank_entry",
				EntityID:    id,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Banco de reposição criado com %d placas", n),
			})
		}
		return c.JSON(fiber.Map{"ok": true, "created": n})
	}
}

// GET /api/cases/:id/bank
func BankSummaryHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "BankSummaryHandler", err)
		}
		s, err := svc.BankSummary(c.UserContext(), id)
		if err != nil {
			return fail(c, "BankSummaryHandler", err)
		}
		return c.JSON(s)
	}
}

// GET /api/cases/:id/replenishment
func ReplenishmentHandler(svc *production.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return fail(c, "ReplenishmentHandler", err)
		}
		cs, err := svc.GetCase(c.UserContext(), id)
		if err != nil {
			return fail(c, "ReplenishmentHandler", err)
		}
		resp := fiber.Map{"case_id": cs.ID, "alerts": []production.Alert{}}
		if next, ok := production.GetNextDueDate(cs); ok {
			resp["next_due"] = next
		}
		if alerts := svc.ReplenishmentAlerts(cs); len(alerts) > 0 {
			resp["alerts"] = alerts
		}
		return c.JSON(resp)
	}
}
