package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// store is the generic data-access helper every aggregate repository is
// composed over. M is a GORM model.
type store[M any] struct {
	db     *gorm.DB
	entity string
}

func newStore[M any](db *gorm.DB, entity string) store[M] {
	return store[M]{db: db, entity: entity}
}

func (s store[M]) session(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s store[M]) get(ctx context.Context, id uuid.UUID) (*M, error) {
	var m M
	if err := s.session(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, s.entity, id)
	}
	return &m, nil
}

// getForUpdate reads the row with SELECT ... FOR UPDATE.
func (s store[M]) getForUpdate(ctx context.Context, id uuid.UUID) (*M, error) {
	var m M
	err := s.session(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, notFoundAs(err, s.entity, id)
	}
	return &m, nil
}

func (s store[M]) create(ctx context.Context, m *M) error {
	return WrapError(func() error {
		return s.session(ctx).Omit(clause.Associations).Create(m).Error
	})
}

func (s store[M]) save(ctx context.Context, m *M) error {
	return WrapError(func() error {
		return s.session(ctx).Omit(clause.Associations).Save(m).Error
	})
}

func (s store[M]) delete(ctx context.Context, id uuid.UUID) error {
	return WrapError(func() error {
		var m M
		return s.session(ctx).Delete(&m, "id = ?", id).Error
	})
}

func (s store[M]) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]M, error) {
	var out []M
	err := WrapError(func() error {
		return scope(s.session(ctx)).Find(&out).Error
	})
	return out, err
}

func (s store[M]) count(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	var n int64
	err := WrapError(func() error {
		var m M
		return scope(s.session(ctx).Model(&m)).Count(&n).Error
	})
	return n, err
}
