package production

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"aligner-lab-backend/internal/caselock"
	"aligner-lab-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// Service é o motor de produção e reposição: fila, sincronização com o caso
// e banco de reposição. Toda operação é escopada a um único caso.
type Service struct {
	store   Store
	catalog Catalog
	locker  Locker
	now     Clock
	log     *logrus.Logger
}

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.now = c }
}

func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(store Store, catalog Catalog, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		locker:  caselock.NewLocal(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logrus.New()
		s.log.SetOutput(io.Discard)
	}
	return s
}

// withCase: trava o caso e executa fn numa transação
func (s *Service) withCase(ctx context.Context, caseID *uint, fn func(tx Store) error) error {
	if caseID != nil {
		unlock, err := s.locker.Lock(ctx, *caseID)
		if err != nil {
			return fmt.Errorf("bloqueio do caso %d: %w", *caseID, err)
		}
		defer unlock()
	}
	return s.store.Atomic(ctx, fn)
}

func loadCase(ctx context.Context, st Store, id uint) (*models.Case, error) {
	c, err := st.Cases().Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("Caso %d não encontrado", id)
	}
	if err != nil {
		return nil, fmt.Errorf("carregar caso %d: %w", id, err)
	}
	return c, nil
}

func loadWorkItem(ctx context.Context, st Store, id uint) (*models.WorkItem, error) {
	w, err := st.WorkItems().Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("Item %d não encontrado", id)
	}
	if err != nil {
		return nil, fmt.Errorf("carregar item %d: %w", id, err)
	}
	return w, nil
}

// isAligner: tipo do item, senão o do caso; vazio conta como alinhador
func (s *Service) isAligner(ctx context.Context, item *models.WorkItem, c *models.Case) (bool, error) {
	productType := item.ProductType
	if productType == "" && c != nil {
		productType = c.ProductType
	}
	if productType == "" {
		return true, nil
	}
	return s.catalog.IsAligner(ctx, productType)
}

func (s *Service) today() time.Time {
	return truncateDay(s.now())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
