package auth

import (
	"errors"
	"strconv"
	"time"

	"aligner-lab-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "aligner-lab"

// Session é o operador autenticado. O nome vai para a auditoria de cada
// movimentação de placa e de banco.
type Session struct {
	UserID uint            `json:"user_id"`
	Name   string          `json:"name"`
	Role   models.UserRole `json:"role"`
}

// Can: o perfil da sessão está entre os informados
func (s Session) Can(roles ...models.UserRole) bool {
	for _, r := range roles {
		if r == s.Role {
			return true
		}
	}
	return false
}

type sessionClaims struct {
	Name string          `json:"name"`
	Role models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken assina o token do operador; o id vai no subject.
func IssueToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

var errBadSubject = errors.New("subject do token não é um id de usuário")

// ParseToken valida assinatura, emissor e validade e devolve a sessão.
func ParseToken(secret, raw string) (Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return Session{}, err
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Session{}, errBadSubject
	}
	return Session{UserID: uint(id), Name: claims.Name, Role: claims.Role}, nil
}
