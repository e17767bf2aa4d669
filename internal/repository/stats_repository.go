package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/example/bazzarly/internal/models"
)

type statsRepository struct {
	db *gorm.DB
}

func (r *statsRepository) count(ctx context.Context, model any, where string, args ...any) (int64, error) {
	q := r.db.WithContext(ctx).Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *statsRepository) Totals(ctx context.Context, now time.Time) (Totals, error) {
	const active = "availability = ? AND settings_is_active = ? AND settings_is_public = ? AND moderation_status = ? AND quantity > 0 AND (settings_expires_at IS NULL OR settings_expires_at > ?)"
	activeArgs := []any{models.Available, true, true, models.ModerationApproved, now}

	var t Totals
	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&t.Users, &models.User{}, "", nil},
		{&t.Stores, &models.Store{}, "", nil},
		{&t.Products, &models.Product{}, "", nil},
		{&t.ActiveProducts, &models.Product{}, active, activeArgs},
		{&t.PendingProducts, &models.Product{}, "moderation_status = ?", []any{models.ModerationPending}},
		{&t.FlaggedProducts, &models.Product{}, "moderation_status = ?", []any{models.ModerationFlagged}},
		{&t.SoldProducts, &models.Product{}, "availability = ?", []any{models.Sold}},
		{&t.Categories, &models.Category{}, "is_active = ?", []any{true}},
	}
	for _, c := range counts {
		n, err := r.count(ctx, c.model, c.where, c.args...)
		if err != nil {
			return Totals{}, err
		}
		*c.dst = n
	}

	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("COALESCE(AVG(price), 0)").
		Where(active, activeArgs...).
		Scan(&t.AveragePrice).Error
	return t, err
}

func (r *statsRepository) Growth(ctx context.Context, since time.Time) (Growth, error) {
	var g Growth
	var err error
	if g.NewUsers, err = r.count(ctx, &models.User{}, "created_at >= ?", since); err != nil {
		return g, err
	}
	if g.NewStores, err = r.count(ctx, &models.Store{}, "created_at >= ?", since); err != nil {
		return g, err
	}
	if g.NewProducts, err = r.count(ctx, &models.Product{}, "created_at >= ?", since); err != nil {
		return g, err
	}
	g.ActiveUsers, err = r.count(ctx, &models.User{}, "stats_last_active >= ?", since)
	return g, err
}

func (r *statsRepository) ProductsByCategory(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.WithContext(ctx).Table("products").
		Select("categories.id AS category_id, categories.name AS name, COUNT(products.id) AS count").
		Joins("JOIN categories ON categories.id = products.category_id").
		Group("categories.id, categories.name").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *statsRepository) UsersByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role  string
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS count").Group("role").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}
