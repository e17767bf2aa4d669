package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

type userRepo DB

func (r *userRepo) conflicts(u models.User) bool {
	for id, existing := range r.users {
		if id == u.ID {
			continue
		}
		if existing.Email == u.Email {
			return true
		}
		if u.Phone != nil && existing.Phone != nil && *existing.Phone == *u.Phone {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok && user.ID != uuid.Nil {
		return errs.ErrConflict
	}
	stamp(&user.BaseModel, r.now())
	if r.conflicts(*user) {
		return errs.ErrConflict
	}
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (r *userRepo) findFirst(match func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *userRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errs.ErrNotFound
	}
	email := strings.ToLower(identifier)
	return r.findFirst(func(u models.User) bool {
		return u.Email == email || u.PhoneNumber() == identifier
	})
}

func (r *userRepo) Exists(ctx context.Context, email, phone string) (bool, error) {
	_, err := r.findFirst(func(u models.User) bool {
		return u.Email == email || (phone != "" && u.PhoneNumber() == phone)
	})
	return err == nil, nil
}

func (r *userRepo) FindByEmailToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errs.ErrNotFound
	}
	return r.findFirst(func(u models.User) bool { return u.EmailVerificationToken == token })
}

func (r *userRepo) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	if tokenHash == "" {
		return nil, errs.ErrNotFound
	}
	return r.findFirst(func(u models.User) bool {
		return u.ResetPasswordToken == tokenHash && u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now)
	})
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return errs.ErrNotFound
	}
	if r.conflicts(*user) {
		return errs.ErrConflict
	}
	user.UpdatedAt = r.now()
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepo) RecordFailedLogin(ctx context.Context, id uuid.UUID, rules models.Rules, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	u.IncrementLoginAttempts(rules, now)
	r.users[id] = u
	out := cloneUser(u)
	return &out, nil
}

func (r *userRepo) List(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.User
	for _, u := range r.users {
		if f.Role != "" && string(u.Role) != f.Role {
			continue
		}
		if f.Status != "" && string(u.Status) != f.Status {
			continue
		}
		if f.Search != "" && !containsFold(u.FirstName, f.Search) && !containsFold(u.LastName, f.Search) && !containsFold(u.Email, f.Search) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	newestFirst(out, func(u models.User) time.Time { return u.CreatedAt })
	return page(out, f.Offset, f.Limit), int64(len(out)), nil
}
