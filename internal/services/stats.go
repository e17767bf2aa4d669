package services

import (
	"context"
	"time"

	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

var dashboardRanges = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// StatsService aggregates the public statistics and the admin dashboard.
type StatsService struct {
	repos repository.Repositories
	opts  Options
}

// Since returns the start of a dashboard range. Unknown ranges mean 30d.
func (s *StatsService) Since(rangeKey string) (string, time.Time) {
	d, ok := dashboardRanges[rangeKey]
	if !ok {
		rangeKey, d = "30d", dashboardRanges["30d"]
	}
	return rangeKey, s.opts.Now().Add(-d)
}

type PublicStats struct {
	TotalProducts   int64                      `json:"totalProducts"`
	TotalCategories int64                      `json:"totalCategories"`
	TotalAds        int                        `json:"totalAds"`
	ActiveAds       int                        `json:"activeAds"`
	AveragePrice    float64                    `json:"averagePrice"`
	TopCategories   []repository.CategoryCount `json:"topCategories"`
}

func (s *StatsService) Public(ctx context.Context) (*PublicStats, error) {
	now := s.opts.Now()
	totals, err := s.repos.Stats.Totals(ctx, now)
	if err != nil {
		return nil, err
	}
	ads, err := s.repos.Ads.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.repos.Stats.ProductsByCategory(ctx)
	if err != nil {
		return nil, err
	}

	out := &PublicStats{
		TotalProducts:   totals.ActiveProducts,
		TotalCategories: totals.Categories,
		TotalAds:        len(ads),
		AveragePrice:    totals.AveragePrice,
		TopCategories:   top(byCategory, 3),
	}
	for i := range ads {
		if ads[i].IsActiveAt(now) {
			out.ActiveAds++
		}
	}
	return out, nil
}

func top[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}

type PendingApprovals struct {
	Total    int64 `json:"total"`
	Users    int64 `json:"users"`
	Stores   int64 `json:"stores"`
	Products int64 `json:"products"`
}

type DashboardOverview struct {
	TotalUsers       int64 `json:"totalUsers"`
	NewUsers         int64 `json:"newUsers"`
	TotalStores      int64 `json:"totalStores"`
	NewStores        int64 `json:"newStores"`
	TotalProducts    int64 `json:"totalProducts"`
	NewProducts      int64 `json:"newProducts"`
	ActiveUsers      int64 `json:"activeUsers"`
	PendingApprovals int64 `json:"pendingApprovals"`
}

type Dashboard struct {
	Range        string                     `json:"range"`
	Since        time.Time                  `json:"since"`
	Overview     DashboardOverview          `json:"overview"`
	Categories   []repository.CategoryCount `json:"categories"`
	UsersByRole  map[string]int64           `json:"usersByRole"`
	PendingItems PendingApprovals           `json:"pendingItems"`
}

func (s *StatsService) pending(ctx context.Context) (PendingApprovals, error) {
	var p PendingApprovals
	var err error
	if _, p.Users, err = s.repos.Users.List(ctx, repository.UserFilter{Status: string(models.UserPending), Limit: 1}); err != nil {
		return p, err
	}
	if _, p.Stores, err = s.repos.Stores.List(ctx, repository.StoreFilter{Status: string(models.StorePending), Limit: 1}); err != nil {
		return p, err
	}
	if _, p.Products, err = s.repos.Products.List(ctx, repository.ProductFilter{Moderation: string(models.ModerationPending), Limit: 1}); err != nil {
		return p, err
	}
	p.Total = p.Users + p.Stores + p.Products
	return p, nil
}

// Dashboard summarizes the platform over a 7d, 30d, 90d or 1y range.
func (s *StatsService) Dashboard(ctx context.Context, rangeKey string) (*Dashboard, error) {
	rangeKey, since := s.Since(rangeKey)

	totals, err := s.repos.Stats.Totals(ctx, s.opts.Now())
	if err != nil {
		return nil, err
	}
	growth, err := s.repos.Stats.Growth(ctx, since)
	if err != nil {
		return nil, err
	}
	pending, err := s.pending(ctx)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.repos.Stats.ProductsByCategory(ctx)
	if err != nil {
		return nil, err
	}
	byRole, err := s.repos.Stats.UsersByRole(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Range: rangeKey,
		Since: since,
		Overview: DashboardOverview{
			TotalUsers:       totals.Users,
			NewUsers:         growth.NewUsers,
			TotalStores:      totals.Stores,
			NewStores:        growth.NewStores,
			TotalProducts:    totals.Products,
			NewProducts:      growth.NewProducts,
			ActiveUsers:      growth.ActiveUsers,
			PendingApprovals: pending.Total,
		},
		Categories:   top(byCategory, 5),
		UsersByRole:  byRole,
		PendingItems: pending,
	}, nil
}

// Analytics breaks the range down by kind: users, stores, products, or an
// overview for anything else.
func (s *StatsService) Analytics(ctx context.Context, kind, rangeKey string) (map[string]any, error) {
	rangeKey, since := s.Since(rangeKey)
	totals, err := s.repos.Stats.Totals(ctx, s.opts.Now())
	if err != nil {
		return nil, err
	}
	growth, err := s.repos.Stats.Growth(ctx, since)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "users":
		byRole, err := s.repos.Stats.UsersByRole(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"range":       rangeKey,
			"totalUsers":  totals.Users,
			"activeUsers": growth.ActiveUsers,
			"newUsers":    growth.NewUsers,
			"usersByRole": byRole,
		}, nil
	case "stores":
		_, active, err := s.repos.Stores.List(ctx, repository.StoreFilter{Status: string(models.StoreActive), Limit: 1})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"range":        rangeKey,
			"totalStores":  totals.Stores,
			"activeStores": active,
			"newStores":    growth.NewStores,
		}, nil
	case "products":
		byCategory, err := s.repos.Stats.ProductsByCategory(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"range":           rangeKey,
			"totalProducts":   totals.Products,
			"activeProducts":  totals.ActiveProducts,
			"pendingProducts": totals.PendingProducts,
			"flaggedProducts": totals.FlaggedProducts,
			"soldProducts":    totals.SoldProducts,
			"newProducts":     growth.NewProducts,
			"averagePrice":    totals.AveragePrice,
			"byCategory":      byCategory,
		}, nil
	}

	pending, err := s.pending(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"range":    rangeKey,
		"overview": pending,
		"growth":   growth,
	}, nil
}
