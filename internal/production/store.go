package production

import (
	"context"
	"time"

	"aligner-lab-backend/internal/models"
)

// CaseRepository devolve cópias; alterações só valem após Save.
type CaseRepository interface {
	Get(ctx context.Context, id uint) (*models.Case, error)
	List(ctx context.Context, statuses ...models.CaseStatus) ([]models.Case, error)
	Create(ctx context.Context, c *models.Case) error
	Save(ctx context.Context, c *models.Case) error
}

type WorkItemFilter struct {
	CaseID      *uint
	Status      models.WorkItemStatus
	RequestKind models.RequestKind
}

type WorkItemRepository interface {
	Get(ctx context.Context, id uint) (*models.WorkItem, error)
	List(ctx context.Context, filter WorkItemFilter) ([]models.WorkItem, error)
	Create(ctx context.Context, w *models.WorkItem) error
	Save(ctx context.Context, w *models.WorkItem) error
	Delete(ctx context.Context, id uint) error
}

// BankRepository: linhas nunca são apagadas, só criadas ou atualizadas.
type BankRepository interface {
	ListByCase(ctx context.Context, caseID uint) ([]models.BankEntry, error)
	HasAny(ctx context.Context, caseID uint) (bool, error)
	Create(ctx context.Context, entries []models.BankEntry) error
	Save(ctx context.Context, entries []models.BankEntry) error
}

// Store agrupa os repositórios; Atomic executa fn numa única transação
// (erro em fn = nada gravado).
type Store interface {
	Cases() CaseRepository
	WorkItems() WorkItemRepository
	Bank() BankRepository
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

// Catalog responde se o tipo de produto é alinhador.
type Catalog interface {
	IsAligner(ctx context.Context, productType string) (bool, error)
}

// Locker garante um único escritor por caso.
type Locker interface {
	Lock(ctx context.Context, caseID uint) (unlock func(), err error)
}

type Clock func() time.Time
