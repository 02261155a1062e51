// Package lab expõe o motor de produção por HTTP (fiber).
package lab

import (
	"errors"
	"time"

	"aligner-lab-backend/internal/audit"
	"aligner-lab-backend/internal/auth"
	"aligner-lab-backend/internal/config"
	"aligner-lab-backend/internal/production"

	"github.com/gofiber/fiber/v2"
)

// Result: resposta padrão das operações do laboratório
type Result struct {
	OK      bool   `json:"ok"`
	ID      uint   `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

func statusFor(kind production.Kind) int {
	switch kind {
	case production.KindValidation:
		return fiber.StatusBadRequest
	case production.KindNotFound:
		return fiber.StatusNotFound
	case production.KindInvalidTransition, production.KindInsufficientBalance, production.KindCancelled:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// fail: erro de negócio vai ao operador como está; falha de infraestrutura é logada
func fail(c *fiber.Ctx, funcName string, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(Result{OK: false, Message: fe.Message})
	}
	kind := production.KindOf(err)
	if kind == "" {
		config.LogError(config.GetLogger(), "lab", funcName, c.Path(), nil, err)
		return c.Status(fiber.StatusInternalServerError).JSON(Result{OK: false, Message: "Erro inesperado no servidor"})
	}
	body := fiber.Map{"ok": false, "message": err.Error(), "kind": kind}
	var perr *production.Error
	if kind == production.KindInsufficientBalance && errors.As(err, &perr) {
		body["arch"] = perr.Arch
		body["available"] = perr.Available
		body["requested"] = perr.Requested
	}
	return c.Status(statusFor(kind)).JSON(body)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Parâmetro "+name+" inválido")
	}
	return uint(id), nil
}

// parseDate aceita "2024-01-31" ou RFC3339
func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, field+" é obrigatório")
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, field+" deve estar no formato AAAA-MM-DD")
	}
	return t, nil
}

// record grava auditoria; falha na auditoria não desfaz a operação
func record(c *fiber.Ctx, opts audit.LogOptions) {
	if session, ok := auth.CurrentUser(c); ok {
		opts.UserID, opts.UserName = session.UserID, session.Name
	}
	if err := audit.WriteLog(opts); err != nil {
		config.LogError(config.GetLogger(), "lab", "record", opts.EntityType, opts, err)
	}
}
