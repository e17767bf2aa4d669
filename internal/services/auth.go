package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/events"
	"github.com/example/bazzarly/internal/logging"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
	"github.com/example/bazzarly/internal/utils"
	"github.com/example/bazzarly/internal/validation"
)

const resetTokenTTL = 10 * time.Minute

// canonicalIdentifier maps an email to the form it was registered under.
// Phone numbers pass through trimmed.
func canonicalIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return validation.SanitizeEmail(identifier)
	}
	return identifier
}

// AuthService handles registration, login, verification and password recovery.
type AuthService struct {
	users    repository.UserRepository
	settings repository.SettingsRepository
	opts     Options
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Role      models.Role
}

// Session is an authenticated user with a freshly issued token.
type Session struct {
	User      *models.User
	Token     string
	ExpiresIn time.Duration
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, err := utils.GenerateToken(s.opts.JWTSecret, user.ID, string(user.Role), s.opts.TokenTTL, s.opts.Now())
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresIn: s.opts.TokenTTL}, nil
}

// Register creates a pending account. admin and super_admin are never
// self-assigned. Verification steps switched off in the settings are marked
// done right away.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.Features.UserRegistration {
		return nil, fmt.Errorf("%w: registration is closed", errs.ErrFeatureDisabled)
	}

	email := validation.SanitizeEmail(in.Email)
	exists, err := s.users.Exists(ctx, email, in.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		logging.Security(s.opts.Log, "duplicate registration attempt", zap.String("email", email))
		return nil, errs.ErrUserAlreadyExists
	}

	now := s.opts.Now()
	user := models.NewUser(in.FirstName, in.LastName, email, in.Phone, in.Role, now)
	if err := user.SetPassword(in.Password, s.opts.Rules.PasswordCost); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if user.EmailVerificationToken, err = utils.RandomToken(32); err != nil {
		return nil, err
	}
	if user.Phone != nil {
		if user.PhoneVerificationCode, err = utils.NumericCode(6); err != nil {
			return nil, err
		}
	}
	if !settings.Features.EmailVerification {
		user.VerifyEmail()
	}
	if user.Phone != nil && !settings.Features.PhoneVerification {
		user.VerifyPhone()
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, errs.ErrUserAlreadyExists
		}
		return nil, err
	}

	logging.Business(s.opts.Log, "user registered",
		zap.String("userId", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	s.opts.Events.Publish(ctx, user.ID.String(), events.UserRegistered, map[string]any{
		"userId": user.ID,
		"role":   user.Role,
	})

	return s.issue(user)
}

// Login accepts an email or phone number. Unknown identifiers and wrong
// passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = canonicalIdentifier(identifier)
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			logging.Security(s.opts.Log, "failed login", zap.String("identifier", identifier))
			return nil, errs.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.opts.Now()
	if user.IsLocked(now) {
		logging.Security(s.opts.Log, "login on locked account", zap.String("userId", user.ID.String()))
		return nil, errs.ErrAccountLocked
	}

	if !user.CheckPassword(password) {
		if user, err = s.users.RecordFailedLogin(ctx, user.ID, s.opts.Rules, now); err != nil {
			return nil, err
		}
		logging.Security(s.opts.Log, "failed login",
			zap.String("userId", user.ID.String()),
			zap.Int("attempts", user.LoginAttempts),
		)
		return nil, errs.ErrInvalidCredentials
	}

	if user.Status != models.UserActive {
		return nil, errs.ErrAccountInactive
	}

	user.RecordLogin(now)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.opts.Log.Info("user logged in", zap.String("userId", user.ID.String()))
	return s.issue(user)
}

// Me returns the account behind a verified token.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, errs.ErrInvalidVerification
	}
	user, err := s.users.FindByEmailToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrInvalidVerification
		}
		return nil, err
	}

	user.VerifyEmail()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.opts.Log.Info("email verified", zap.String("userId", user.ID.String()))
	return user, nil
}

func (s *AuthService) VerifyPhone(ctx context.Context, phone, code string) (*models.User, error) {
	if phone == "" || code == "" {
		return nil, errs.ErrInvalidVerification
	}
	user, err := s.users.FindByIdentifier(ctx, phone)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrInvalidVerification
		}
		return nil, err
	}
	if user.PhoneNumber() != phone || user.PhoneVerificationCode == "" || user.PhoneVerificationCode != code {
		return nil, errs.ErrInvalidVerification
	}

	user.VerifyPhone()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.opts.Log.Info("phone verified", zap.String("userId", user.ID.String()))
	return user, nil
}

// ResendEmailVerification rotates the pending email token.
func (s *AuthService) ResendEmailVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByIdentifier(ctx, canonicalIdentifier(email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: user not found", errs.ErrNotFound)
		}
		return err
	}
	if user.EmailVerified {
		return fmt.Errorf("%w: email already verified", errs.ErrBadRequest)
	}

	if user.EmailVerificationToken, err = utils.RandomToken(32); err != nil {
		return err
	}
	return s.users.Update(ctx, user)
}

// ForgotPassword stores the hash of a new reset token. The caller answers the
// same way whether or not the account exists; the plain token is returned for
// the delivery channel and is empty for unknown identifiers.
func (s *AuthService) ForgotPassword(ctx context.Context, identifier string) (string, error) {
	user, err := s.users.FindByIdentifier(ctx, canonicalIdentifier(identifier))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		return "", err
	}
	expires := s.opts.Now().Add(resetTokenTTL)
	user.ResetPasswordToken = utils.HashToken(token)
	user.ResetPasswordExpires = &expires
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}

	s.opts.Log.Info("password reset requested", zap.String("userId", user.ID.String()))
	return token, nil
}

// ResetPassword consumes a reset token and clears any lockout.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.FindByResetToken(ctx, utils.HashToken(token), s.opts.Now())
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrInvalidResetToken
		}
		return err
	}

	if err := user.SetPassword(newPassword, s.opts.Rules.PasswordCost); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.ResetPasswordToken = ""
	user.ResetPasswordExpires = nil
	user.ResetLoginAttempts()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	logging.Security(s.opts.Log, "password reset", zap.String("userId", user.ID.String()))
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(current) {
		return fmt.Errorf("%w: current password is incorrect", errs.ErrBadRequest)
	}
	if err := user.SetPassword(next, s.opts.Rules.PasswordCost); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	logging.Security(s.opts.Log, "password changed", zap.String("userId", user.ID.String()))
	return nil
}

// Refresh issues a new token for an account that is still active.
func (s *AuthService) Refresh(ctx context.Context, userID uuid.UUID) (*Session, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrInvalidToken
		}
		return nil, err
	}
	if user.Status != models.UserActive {
		return nil, errs.ErrAccountInactive
	}
	return s.issue(user)
}
