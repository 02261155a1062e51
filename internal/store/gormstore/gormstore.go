// Package gormstore implementa production.Store sobre gorm/Postgres.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

// Verify interface compliance
var _ production.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Cases() production.CaseRepository         { return caseRepo{s.db} }
func (s *Store) WorkItems() production.WorkItemRepository { return itemRepo{s.db} }
func (s *Store) Bank() production.BankRepository          { return bankRepo{s.db} }

func (s *Store) Atomic(ctx context.Context, fn func(tx production.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return production.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &production.Error{Kind: production.KindValidation, Message: "Registro duplicado"}
	}
	return err
}

type caseRepo struct{ db *gorm.DB }

func (r caseRepo) preload(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Trays", func(db *gorm.DB) *gorm.DB { return db.Order("tray_number ASC") }).
		Preload("DeliveryLots", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Installation").
		Preload("Installation.PatientDeliveryLots").
		Preload("Installation.ActualChangeDates")
}

func (r caseRepo) Get(ctx context.Context, id uint) (*models.Case, error) {
	var c models.Case
	if err := r.preload(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r caseRepo) List(ctx context.Context, statuses ...models.CaseStatus) ([]models.Case, error) {
	q := r.preload(ctx)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var cases []models.Case
	if err := q.Order("id ASC").Find(&cases).Error; err != nil {
		return nil, err
	}
	return cases, nil
}

func (r caseRepo) Create(ctx context.Context, c *models.Case) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

// Save grava o caso inteiro (placas, lotes, instalação) na transação corrente.
func (r caseRepo) Save(ctx context.Context, c *models.Case) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(c).Error
	if err != nil {
		return fmt.Errorf("gravar caso %d: %w", c.ID, translate(err))
	}
	return nil
}

type itemRepo struct{ db *gorm.DB }

func (r itemRepo) Get(ctx context.Context, id uint) (*models.WorkItem, error) {
	var w models.WorkItem
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r itemRepo) List(ctx context.Context, f production.WorkItemFilter) ([]models.WorkItem, error) {
	q := r.db.WithContext(ctx).Model(&models.WorkItem{})
	if f.CaseID != nil {
		q = q.Where("case_id = ?", *f.CaseID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RequestKind != "" {
		q = q.Where("request_kind = ?", f.RequestKind)
	}
	var items []models.WorkItem
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r itemRepo) Create(ctx context.Context, w *models.WorkItem) error {
	return translate(r.db.WithContext(ctx).Create(w).Error)
}

func (r itemRepo) Save(ctx context.Context, w *models.WorkItem) error {
	return translate(r.db.WithContext(ctx).Save(w).Error)
}

func (r itemRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.WorkItem{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return production.ErrNotFound
	}
	return nil
}

type bankRepo struct{ db *gorm.DB }

// ListByCase trava as linhas do caso (FOR UPDATE) dentro da transação
func (r bankRepo) ListByCase(ctx context.Context, caseID uint) ([]models.BankEntry, error) {
	var entries []models.BankEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("case_id = ?", caseID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r bankRepo) HasAny(ctx context.Context, caseID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.BankEntry{}).
		Where("case_id = ?", caseID).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

func (r bankRepo) Create(ctx context.Context, entries []models.BankEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).CreateInBatches(entries, 200).Error)
}

func (r bankRepo) Save(ctx context.Context, entries []models.BankEntry) error {
	for i := range entries {
		if err := r.db.WithContext(ctx).Save(&entries[i]).Error; err != nil {
			return fmt.Errorf("gravar linha %d do banco: %w", entries[i].ID, translate(err))
		}
	}
	return nil
}
