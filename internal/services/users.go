package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/logging"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
	"github.com/example/bazzarly/internal/utils"
)

// UserService manages profiles and the admin user console.
type UserService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	opts     Options
}

// ProfileInput holds the editable profile fields. Nil fields are unchanged.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Avatar    *string
	Bio       *string
	Location  *models.UserLocation
}

type PreferencesInput struct {
	Notifications *models.NotificationPreferences
	Privacy       *models.PrivacyPreferences
	Language      *string
	Currency      *string
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile applies in. A new phone number has to be verified again.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Location != nil {
		user.Location = *in.Location
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != user.PhoneNumber() {
			if err := s.changePhone(user, phone); err != nil {
				return nil, err
			}
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) changePhone(user *models.User, phone string) error {
	user.PhoneVerified = false
	user.PhoneVerificationCode = ""
	if phone == "" {
		user.Phone = nil
		return nil
	}
	code, err := utils.NumericCode(6)
	if err != nil {
		return err
	}
	user.Phone = &phone
	user.PhoneVerificationCode = code
	return nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID uuid.UUID, in PreferencesInput) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs := &user.Preferences
	if in.Notifications != nil {
		prefs.Notifications = *in.Notifications
	}
	if in.Privacy != nil {
		prefs.Privacy = *in.Privacy
	}
	if in.Language != nil && *in.Language != "" {
		prefs.Language = *in.Language
	}
	if in.Currency != nil && *in.Currency != "" {
		prefs.Currency = strings.ToUpper(*in.Currency)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	return s.users.List(ctx, filter)
}

// UserDetail is the admin view of an account with its latest listings.
type UserDetail struct {
	User     *models.User     `json:"user"`
	Products []models.Product `json:"products"`
}

func (s *UserService) Detail(ctx context.Context, userID uuid.UUID) (*UserDetail, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, _, err := s.products.List(ctx, repository.ProductFilter{SellerID: &userID, Limit: 10})
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: user, Products: products}, nil
}

// AdminUserUpdate carries the fields an administrator may change.
type AdminUserUpdate struct {
	Status           *models.UserStatus
	Role             *models.Role
	Permissions      []string
	SuspensionReason *string
}

// AdminUpdate changes status, role, permissions or suspension reason. Only a
// super admin hands out the admin roles.
func (s *UserService) AdminUpdate(ctx context.Context, actor *models.User, userID uuid.UUID, in AdminUserUpdate) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		user.Status = *in.Status
	}
	if in.Role != nil {
		role := *in.Role
		if (role == models.RoleAdmin || role == models.RoleSuperAdmin) && actor.Role != models.RoleSuperAdmin {
			return nil, fmt.Errorf("%w: only a super admin can grant %s", errs.ErrForbidden, role)
		}
		user.Role = role
	}
	if in.Permissions != nil {
		perms, err := parsePermissions(in.Permissions)
		if err != nil {
			return nil, err
		}
		user.Permissions = perms
	}
	if in.SuspensionReason != nil {
		user.SuspensionReason = *in.SuspensionReason
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	logging.Business(s.opts.Log, "user updated by admin",
		zap.String("userId", user.ID.String()),
		zap.String("adminId", actor.ID.String()),
		zap.String("status", string(user.Status)),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

func parsePermissions(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		known := false
		for _, p := range models.Permissions {
			if string(p) == raw {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("%w: unknown permission %q", errs.ErrBadRequest, raw)
		}
		out = append(out, raw)
	}
	return out, nil
}
