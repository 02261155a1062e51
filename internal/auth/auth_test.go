package auth

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"aligner-lab-backend/internal/config"
	"aligner-lab-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

var tecnica = &models.User{ID: 3, Name: "Paula Técnica", Email: "lab@clinica.com", Role: models.RoleLab}

func newApp(roles ...models.UserRole) *fiber.App {
	app := fiber.New()
	cfg := &config.Config{JWTSecret: secret}
	app.Use(JWTMiddleware(cfg))
	app.Use(RequireRole(roles...))
	app.Get("/", func(c *fiber.Ctx) error {
		s, _ := CurrentUser(c)
		return c.JSON(s)
	})
	return app
}

func request(t *testing.T, app *fiber.App, header string) (int, Session) {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var s Session
	if resp.StatusCode == fiber.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	}
	return resp.StatusCode, s
}

func TestJWTMiddlewareAndRoles(t *testing.T) {
	labToken, err := IssueToken(secret, tecnica, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		roles  []models.UserRole
		header string
		want   int
	}{
		{"sem cabeçalho", []models.UserRole{models.RoleLab}, "", fiber.StatusUnauthorized},
		{"formato errado", []models.UserRole{models.RoleLab}, "Token " + labToken, fiber.StatusUnauthorized},
		{"bearer vazio", []models.UserRole{models.RoleLab}, "Bearer ", fiber.StatusUnauthorized},
		{"token inválido", []models.UserRole{models.RoleLab}, "Bearer abc.def.ghi", fiber.StatusUnauthorized},
		{"perfil permitido", []models.UserRole{models.RoleAdmin, models.RoleLab}, "Bearer " + labToken, fiber.StatusOK},
		{"esquema minúsculo", []models.UserRole{models.RoleLab}, "bearer " + labToken, fiber.StatusOK},
		{"clínica não opera a fila", []models.UserRole{models.RoleAdmin}, "Bearer " + labToken, fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := request(t, newApp(tt.roles...), tt.header)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestSessionCarriesOperatorName(t *testing.T) {
	token, err := IssueToken(secret, tecnica, time.Hour)
	require.NoError(t, err)

	code, s := request(t, newApp(models.RoleLab), "Bearer "+token)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, Session{UserID: 3, Name: "Paula Técnica", Role: models.RoleLab}, s)
}

func TestParseTokenRejects(t *testing.T) {
	other, err := IssueToken("outro-segredo-com-trinta-e-dois-chars!!", tecnica, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(secret, other)
	assert.Error(t, err)

	expired, err := IssueToken(secret, tecnica, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "outro-sistema",
		Subject:   "3",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseToken(secret, foreign)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	noSubject, err := IssueToken(secret, &models.User{Name: "sem id", Role: models.RoleLab}, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(secret, noSubject)
	assert.ErrorIs(t, err, errBadSubject)
}

func TestSessionCan(t *testing.T) {
	s := Session{Role: models.RoleClinic}
	assert.True(t, s.Can(models.RoleAdmin, models.RoleClinic))
	assert.False(t, s.Can(models.RoleAdmin, models.RoleLab))
	assert.False(t, s.Can())
}
