package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

type statsRepo DB

func (r *statsRepo) Totals(ctx context.Context, now time.Time) (repository.Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t := repository.Totals{
		Users:    int64(len(r.users)),
		Stores:   int64(len(r.stores)),
		Products: int64(len(r.products)),
	}
	var priceSum float64
	for _, p := range r.products {
		if p.IsAvailableForPurchase(now) {
			t.ActiveProducts++
			priceSum += p.Price
		}
		switch p.Moderation.Status {
		case models.ModerationPending:
			t.PendingProducts++
		case models.ModerationFlagged:
			t.FlaggedProducts++
		}
		if p.Availability == models.Sold {
			t.SoldProducts++
		}
	}
	for _, c := range r.categories {
		if c.IsActive {
			t.Categories++
		}
	}
	if t.ActiveProducts > 0 {
		t.AveragePrice = priceSum / float64(t.ActiveProducts)
	}
	return t, nil
}

func (r *statsRepo) Growth(ctx context.Context, since time.Time) (repository.Growth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var g repository.Growth
	for _, u := range r.users {
		if !u.CreatedAt.Before(since) {
			g.NewUsers++
		}
		if u.Stats.LastActive != nil && !u.Stats.LastActive.Before(since) {
			g.ActiveUsers++
		}
	}
	for _, s := range r.stores {
		if !s.CreatedAt.Before(since) {
			g.NewStores++
		}
	}
	for _, p := range r.products {
		if !p.CreatedAt.Before(since) {
			g.NewProducts++
		}
	}
	return g, nil
}

func (r *statsRepo) ProductsByCategory(ctx context.Context) ([]repository.CategoryCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[uuid.UUID]int64)
	for _, p := range r.products {
		counts[p.CategoryID]++
	}
	out := make([]repository.CategoryCount, 0, len(counts))
	for id, n := range counts {
		c, ok := r.categories[id]
		if !ok {
			continue
		}
		out = append(out, repository.CategoryCount{CategoryID: id, Name: c.Name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *statsRepo) UsersByRole(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int64)
	for _, u := range r.users {
		out[string(u.Role)]++
	}
	return out, nil
}
