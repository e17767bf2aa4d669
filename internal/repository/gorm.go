package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
)

// NewGorm wires every repository to a postgres connection.
func NewGorm(db *gorm.DB, rules models.Rules, now func() time.Time) Repositories {
	if now == nil {
		now = time.Now
	}
	return Repositories{
		Users:      &userRepository{db: db},
		Stores:     &storeRepository{db: db, rules: rules, now: now},
		Products:   &productRepository{db: db, rules: rules, now: now},
		Categories: &categoryRepository{db: db, rules: rules, now: now},
		Ads:        &adRepository{db: db},
		Settings:   &settingsRepository{db: db},
		Stats:      &statsRepository{db: db},
	}
}

// mapErr converts gorm errors into the errs taxonomy.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.ErrConflict
	}
	return err
}

// pruneChildren deletes child rows of parentID that are not in keep.
func pruneChildren(tx *gorm.DB, model any, foreignKey string, parentID uuid.UUID, keep []uuid.UUID) error {
	q := tx.Where(foreignKey+" = ?", parentID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	return q.Delete(model).Error
}

func ids[T any](items []T, id func(*T) uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(items))
	for i := range items {
		out = append(out, id(&items[i]))
	}
	return out
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

func paginate(q *gorm.DB, offset, limit int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}
