// Package catalog responde se um tipo de produto é alinhador. Só alinhadores
// mexem em placas e no banco de reposição.
package catalog

import (
	"context"
	"errors"
	"strings"

	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	"gorm.io/gorm"
)

// Static: catálogo fixo, usado em testes e no labctl sem banco
type Static map[string]bool

var _ production.Catalog = Static(nil)

func (s Static) IsAligner(_ context.Context, productType string) (bool, error) {
	return s[normalize(productType)], nil
}

type DB struct {
	db *gorm.DB
}

var _ production.Catalog = (*DB)(nil)

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// IsAligner: tipo desconhecido não é alinhador
func (c *DB) IsAligner(ctx context.Context, productType string) (bool, error) {
	var p models.Product
	err := c.db.WithContext(ctx).Where("type = ?", normalize(productType)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsAligner, nil
}

func normalize(productType string) string {
	return strings.ToLower(strings.TrimSpace(productType))
}
