package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return mapErr(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *userRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errs.ErrNotFound
	}

	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).
		First(&user).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, email, phone string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if phone != "" {
		q = q.Or("phone = ?", phone)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) FindByEmailToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errs.ErrNotFound
	}
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email_verification_token = ?", token).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *userRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expires > ?", tokenHash, now).
		First(&user).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return mapErr(r.db.WithContext(ctx).Save(user).Error)
}

func (r *userRepository) RecordFailedLogin(ctx context.Context, id uuid.UUID, rules models.Rules, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		user.IncrementLoginAttempts(rules, now)
		return tx.Model(&user).Select("login_attempts", "lock_until").Updates(map[string]any{
			"login_attempts": user.LoginAttempts,
			"lock_until":     user.LockUntil,
		}).Error
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Search != "" {
		like := likePattern(filter.Search)
		q = q.Where("(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)", like, like, like)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := paginate(q.Order("created_at DESC"), filter.Offset, filter.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
