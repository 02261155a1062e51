package auth

import (
	"strings"

	"aligner-lab-backend/internal/config"
	"aligner-lab-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const CtxSessionKey = "session"

// bearer extrai o token de "Authorization: Bearer <token>"
func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Cabeçalho Authorization ausente")
		}
		raw, ok := bearer(header)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Formato esperado: 'Bearer <token>'")
		}

		session, err := ParseToken(cfg.JWTSecret, raw)
		if err != nil {
			config.GetLogger().WithField("path", c.Path()).WithError(err).Debug("token recusado")
			return fiber.NewError(fiber.StatusUnauthorized, "Sessão inválida ou expirada")
		}

		c.Locals(CtxSessionKey, session)
		return c.Next()
	}
}

// RequireRole libera a rota para os perfis informados (admin, lab ou clinic).
func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Sessão do operador indisponível")
		}
		if !session.Can(allowedRoles...) {
			return fiber.NewError(fiber.StatusForbidden, "Perfil "+string(session.Role)+" não pode executar esta operação")
		}
		return c.Next()
	}
}

func CurrentUser(c *fiber.Ctx) (Session, bool) {
	s, ok := c.Locals(CtxSessionKey).(Session)
	return s, ok
}
