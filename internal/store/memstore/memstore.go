// Package memstore é um Store em memória com transações por snapshot:
// Atomic trabalha sobre uma cópia do estado e só a publica se fn não falhar.
package memstore

import (
	"context"
	"sort"
	"sync"

	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"
)

type state struct {
	cases  map[uint]*models.Case
	items  map[uint]*models.WorkItem
	bank   []models.BankEntry
	nextID uint
}

func newState() *state {
	return &state{
		cases: map[uint]*models.Case{},
		items: map[uint]*models.WorkItem{},
	}
}

func (s *state) clone() *state {
	out := &state{
		cases:  make(map[uint]*models.Case, len(s.cases)),
		items:  make(map[uint]*models.WorkItem, len(s.items)),
		bank:   make([]models.BankEntry, len(s.bank)),
		nextID: s.nextID,
	}
	for id, c := range s.cases {
		out.cases[id] = c.Clone()
	}
	for id, w := range s.items {
		out.items[id] = cloneItem(w)
	}
	for i, e := range s.bank {
		out.bank[i] = cloneEntry(e)
	}
	return out
}

func (s *state) id() uint {
	s.nextID++
	return s.nextID
}

type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

// Verify interface compliance
var _ production.Store = (*Store)(nil)

func New() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

func (s *Store) Cases() production.CaseRepository         { return caseRepo{s} }
func (s *Store) WorkItems() production.WorkItemRepository { return itemRepo{s} }
func (s *Store) Bank() production.BankRepository          { return bankRepo{s} }

func (s *Store) Atomic(_ context.Context, fn func(tx production.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{mu: s.mu, st: s.st.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

// read/write: fora de transação cada chamada é atômica por si
func (s *Store) with(fn func(st *state) error) error {
	if s.inTx {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func notFound() error { return production.ErrNotFound }

type caseRepo struct{ s *Store }

func (r caseRepo) Get(_ context.Context, id uint) (*models.Case, error) {
	var out *models.Case
	err := r.s.with(func(st *state) error {
		c, ok := st.cases[id]
		if !ok {
			return notFound()
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

func (r caseRepo) List(_ context.Context, statuses ...models.CaseStatus) ([]models.Case, error) {
	var out []models.Case
	err := r.s.with(func(st *state) error {
		for _, c := range st.cases {
			if len(statuses) > 0 && !hasStatus(statuses, c.Status) {
				continue
			}
			out = append(out, *c.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func hasStatus(list []models.CaseStatus, s models.CaseStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (r caseRepo) Create(_ context.Context, c *models.Case) error {
	return r.s.with(func(st *state) error {
		for _, other := range st.cases {
			if other.Code == c.Code {
				return &production.Error{Kind: production.KindValidation, Message: "Código de caso já existe: " + c.Code}
			}
		}
		c.ID = st.id()
		assignChildIDs(st, c)
		st.cases[c.ID] = c.Clone()
		return nil
	})
}

func (r caseRepo) Save(_ context.Context, c *models.Case) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.cases[c.ID]; !ok {
			return notFound()
		}
		assignChildIDs(st, c)
		st.cases[c.ID] = c.Clone()
		return nil
	})
}

func assignChildIDs(st *state, c *models.Case) {
	for i := range c.Trays {
		c.Trays[i].CaseID = c.ID
		if c.Trays[i].ID == 0 {
			c.Trays[i].ID = st.id()
		}
	}
	for i := range c.DeliveryLots {
		c.DeliveryLots[i].CaseID = c.ID
		if c.DeliveryLots[i].ID == 0 {
			c.DeliveryLots[i].ID = st.id()
		}
	}
	if inst := c.Installation; inst != nil {
		inst.CaseID = c.ID
		if inst.ID == 0 {
			inst.ID = st.id()
		}
		for i := range inst.PatientDeliveryLots {
			inst.PatientDeliveryLots[i].InstallationID = inst.ID
			if inst.PatientDeliveryLots[i].ID == 0 {
				inst.PatientDeliveryLots[i].ID = st.id()
			}
		}
		for i := range inst.ActualChangeDates {
			inst.ActualChangeDates[i].InstallationID = inst.ID
			if inst.ActualChangeDates[i].ID == 0 {
				inst.ActualChangeDates[i].ID = st.id()
			}
		}
	}
}

type itemRepo struct{ s *Store }

func cloneItem(w *models.WorkItem) *models.WorkItem {
	out := *w
	if w.CaseID != nil {
		id := *w.CaseID
		out.CaseID = &id
	}
	if w.DueDate != nil {
		d := *w.DueDate
		out.DueDate = &d
	}
	return &out
}

func (r itemRepo) Get(_ context.Context, id uint) (*models.WorkItem, error) {
	var out *models.WorkItem
	err := r.s.with(func(st *state) error {
		w, ok := st.items[id]
		if !ok {
			return notFound()
		}
		out = cloneItem(w)
		return nil
	})
	return out, err
}

func (r itemRepo) List(_ context.Context, f production.WorkItemFilter) ([]models.WorkItem, error) {
	var out []models.WorkItem
	err := r.s.with(func(st *state) error {
		for _, w := range st.items {
			if f.CaseID != nil && (w.CaseID == nil || *w.CaseID != *f.CaseID) {
				continue
			}
			if f.Status != "" && w.Status != f.Status {
				continue
			}
			if f.RequestKind != "" && w.RequestKind != f.RequestKind {
				continue
			}
			out = append(out, *cloneItem(w))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r itemRepo) Create(_ context.Context, w *models.WorkItem) error {
	return r.s.with(func(st *state) error {
		w.ID = st.id()
		st.items[w.ID] = cloneItem(w)
		return nil
	})
}

func (r itemRepo) Save(_ context.Context, w *models.WorkItem) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.items[w.ID]; !ok {
			return notFound()
		}
		st.items[w.ID] = cloneItem(w)
		return nil
	})
}

func (r itemRepo) Delete(_ context.Context, id uint) error {
	return r.s.with(func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return notFound()
		}
		delete(st.items, id)
		return nil
	})
}

type bankRepo struct{ s *Store }

func cloneEntry(e models.BankEntry) models.BankEntry {
	if e.SourceWorkItemID != nil {
		id := *e.SourceWorkItemID
		e.SourceWorkItemID = &id
	}
	if e.DeliveredAt != nil {
		d := *e.DeliveredAt
		e.DeliveredAt = &d
	}
	return e
}

func (r bankRepo) ListByCase(_ context.Context, caseID uint) ([]models.BankEntry, error) {
	var out []models.BankEntry
	err := r.s.with(func(st *state) error {
		for _, e := range st.bank {
			if e.CaseID == caseID {
				out = append(out, cloneEntry(e))
			}
		}
		return nil
	})
	return out, err
}

func (r bankRepo) HasAny(_ context.Context, caseID uint) (bool, error) {
	var found bool
	err := r.s.with(func(st *state) error {
		for _, e := range st.bank {
			if e.CaseID == caseID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r bankRepo) Create(_ context.Context, entries []models.BankEntry) error {
	return r.s.with(func(st *state) error {
		for i := range entries {
			entries[i].ID = st.id()
			st.bank = append(st.bank, cloneEntry(entries[i]))
		}
		return nil
	})
}

func (r bankRepo) Save(_ context.Context, entries []models.BankEntry) error {
	return r.s.with(func(st *state) error {
		for _, e := range entries {
			found := false
			for i := range st.bank {
				if st.bank[i].ID == e.ID {
					st.bank[i] = cloneEntry(e)
					found = true
					break
				}
			}
			if !found {
				return notFound()
			}
		}
		return nil
	})
}
