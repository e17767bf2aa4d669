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
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// StoreService manages storefronts and their staff.
type StoreService struct {
	stores   repository.StoreRepository
	users    repository.UserRepository
	settings repository.SettingsRepository
	opts     Options
}

type StoreSettingsInput struct {
	IsPublic                 *bool `json:"isPublic"`
	AllowGuestCheckout       *bool `json:"allowGuestCheckout"`
	RequireEmailVerification *bool `json:"requireEmailVerification"`
	AutoApproveProducts      *bool `json:"autoApproveProducts"`
}

// StoreInput carries storefront fields. Nil fields are left unchanged;
// a non-nil list replaces the stored one.
type StoreInput struct {
	Name               *string
	Description        *string
	Tagline            *string
	Email              *string
	Phone              *string
	Website            *string
	SocialMedia        *models.SocialLinks
	BusinessType       *string
	BusinessCategory   *string
	SubCategory        *string
	TaxID              *string
	BusinessLicense    *string
	RegistrationNumber *string
	EstablishedYear    *int
	Branding           *models.StoreBranding
	Policies           *models.StorePolicies
	Settings           *StoreSettingsInput
	Addresses          []models.StoreAddress
	Hours              []models.StoreHours
	Deals              []models.StoreDeal
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func (s *StoreService) apply(store *models.Store, in StoreInput) error {
	now := s.opts.Now()

	setString(&store.Name, in.Name)
	setString(&store.Description, in.Description)
	setString(&store.Tagline, in.Tagline)
	setString(&store.Contact.Email, in.Email)
	setString(&store.Contact.Phone, in.Phone)
	setString(&store.Contact.Website, in.Website)
	if in.SocialMedia != nil {
		store.Contact.SocialMedia = *in.SocialMedia
	}

	if in.BusinessType != nil {
		switch *in.BusinessType {
		case "individual", "business", "corporation":
			store.Business.Type = *in.BusinessType
		default:
			return fmt.Errorf("%w: unknown business type %q", errs.ErrBadRequest, *in.BusinessType)
		}
	}
	setString(&store.Business.Category, in.BusinessCategory)
	setString(&store.Business.SubCategory, in.SubCategory)
	setString(&store.Business.TaxID, in.TaxID)
	setString(&store.Business.BusinessLicense, in.BusinessLicense)
	setString(&store.Business.RegistrationNumber, in.RegistrationNumber)
	if in.EstablishedYear != nil {
		store.Business.EstablishedYear = *in.EstablishedYear
	}

	if in.Branding != nil {
		store.Branding = *in.Branding
	}
	if in.Policies != nil {
		store.Policies = *in.Policies
	}
	if in.Settings != nil {
		setBool(&store.Settings.IsPublic, in.Settings.IsPublic)
		setBool(&store.Settings.AllowGuestCheckout, in.Settings.AllowGuestCheckout)
		setBool(&store.Settings.RequireEmailVerification, in.Settings.RequireEmailVerification)
		setBool(&store.Settings.AutoApproveProducts, in.Settings.AutoApproveProducts)
	}

	if in.Addresses != nil {
		addresses := make([]models.StoreAddress, len(in.Addresses))
		for i, a := range in.Addresses {
			a.BaseModel = models.BaseModel{ID: uuid.New(), CreatedAt: now}
			a.StoreID = store.ID
			if a.Type == "" {
				a.Type = "primary"
			}
			addresses[i] = a
		}
		store.Addresses = addresses
	}

	if in.Hours != nil {
		hours := make([]models.StoreHours, len(in.Hours))
		for i, h := range in.Hours {
			h.Day = strings.ToLower(strings.TrimSpace(h.Day))
			if !weekdays[h.Day] {
				return fmt.Errorf("%w: unknown day %q", errs.ErrBadRequest, h.Day)
			}
			if h.IsOpen && (!validClock(h.OpenTime) || !validClock(h.CloseTime)) {
				return fmt.Errorf("%w: hours for %s must use HH:MM", errs.ErrBadRequest, h.Day)
			}
			h.BaseModel = models.BaseModel{ID: uuid.New(), CreatedAt: now}
			h.StoreID = store.ID
			hours[i] = h
		}
		store.Hours = hours
	}

	if in.Deals != nil {
		deals := make([]models.StoreDeal, len(in.Deals))
		for i, d := range in.Deals {
			if d.DiscountPercent < 0 || d.DiscountPercent > 100 {
				return fmt.Errorf("%w: discount must be between 0 and 100", errs.ErrBadRequest)
			}
			d.BaseModel = models.BaseModel{ID: uuid.New(), CreatedAt: now}
			d.StoreID = store.ID
			deals[i] = d
		}
		store.Deals = deals
	}
	return nil
}

func validClock(v string) bool {
	_, err := time.Parse("15:04", v)
	return err == nil && len(v) == 5
}

// Create opens the single store of ownerID and promotes a regular user to
// store_owner. The store is removed again when the owner cannot be updated.
func (s *StoreService) Create(ctx context.Context, ownerID uuid.UUID, in StoreInput) (*models.Store, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.Features.StoreCreation {
		return nil, fmt.Errorf("%w: store creation is closed", errs.ErrFeatureDisabled)
	}

	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.StoreID != nil {
		return nil, fmt.Errorf("%w: you already have a store", errs.ErrConflict)
	}
	if _, err := s.stores.FindByOwner(ctx, ownerID); err == nil {
		return nil, fmt.Errorf("%w: you already have a store", errs.ErrConflict)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	name := ""
	if in.Name != nil {
		name = *in.Name
	}
	store := models.NewStore(ownerID, name, s.opts.Now())
	if err := s.apply(store, in); err != nil {
		return nil, err
	}
	if err := s.stores.Create(ctx, store); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, fmt.Errorf("%w: a store with this name already exists", errs.ErrConflict)
		}
		return nil, err
	}

	if owner.Role == models.RoleUser {
		owner.Role = models.RoleStoreOwner
	}
	owner.StoreID = &store.ID
	if err := s.users.Update(ctx, owner); err != nil {
		if derr := s.stores.Delete(ctx, store.ID); derr != nil {
			s.opts.Log.Error("failed to roll back store", zap.String("storeId", store.ID.String()), zap.Error(derr))
		}
		return nil, err
	}

	logging.Business(s.opts.Log, "store created",
		zap.String("storeId", store.ID.String()),
		zap.String("ownerId", ownerID.String()),
	)
	s.opts.Events.Publish(ctx, store.ID.String(), events.StoreCreated, map[string]any{
		"storeId":  store.ID,
		"ownerId":  ownerID,
		"category": store.Business.Category,
	})
	s.opts.Notifier.NotifyNewStore(ctx, StoreNotification{
		StoreID:   store.ID.String(),
		Name:      store.Name,
		OwnerName: owner.FullName(),
		Category:  store.Business.Category,
	})
	return store, nil
}

// GetBySlug serves an active storefront and counts the visit.
func (s *StoreService) GetBySlug(ctx context.Context, slug string) (*models.PublicStore, error) {
	store, err := s.stores.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if store.Status != models.StoreActive || !store.Settings.IsActive {
		return nil, fmt.Errorf("%w: store not found", errs.ErrNotFound)
	}

	now := s.opts.Now()
	if err := s.stores.AddView(ctx, store.ID, now); err != nil {
		return nil, err
	}
	store.AddView(now)

	out := store.ToPublicJSON(now)
	return &out, nil
}

// Manage returns the full store record for someone allowed to view it.
func (s *StoreService) Manage(ctx context.Context, userID, id uuid.UUID) (*models.Store, error) {
	store, err := s.stores.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !store.CanUserManage(userID, "view") {
		return nil, fmt.Errorf("%w: you cannot manage this store", errs.ErrForbidden)
	}
	return store, nil
}

func (s *StoreService) Update(ctx context.Context, userID, id uuid.UUID, in StoreInput) (*models.Store, error) {
	return s.stores.Mutate(ctx, id, func(store *models.Store) error {
		if !store.CanUserManage(userID, "edit") {
			return fmt.Errorf("%w: you cannot edit this store", errs.ErrForbidden)
		}
		if in.Settings != nil && !store.CanUserManage(userID, string(models.StoreManageSettings)) {
			return fmt.Errorf("%w: you cannot change store settings", errs.ErrForbidden)
		}
		return s.apply(store, in)
	})
}

type StoreAdminInput struct {
	UserID      uuid.UUID
	Role        models.StoreAdminRole
	Permissions []models.StorePermission
}

func (s *StoreService) AddAdmin(ctx context.Context, userID, id uuid.UUID, in StoreAdminInput) (*models.Store, error) {
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", errs.ErrNotFound)
		}
		return nil, err
	}

	store, err := s.stores.Mutate(ctx, id, func(store *models.Store) error {
		if !store.CanManageStaff(userID) {
			return fmt.Errorf("%w: you cannot manage store staff", errs.ErrForbidden)
		}
		return store.AddAdmin(in.UserID, in.Role, in.Permissions, s.opts.Now())
	})
	if err != nil {
		return nil, err
	}

	logging.Business(s.opts.Log, "store admin added",
		zap.String("storeId", id.String()),
		zap.String("userId", in.UserID.String()),
	)
	return store, nil
}

func (s *StoreService) RemoveAdmin(ctx context.Context, userID, id, adminUserID uuid.UUID) (*models.Store, error) {
	return s.stores.Mutate(ctx, id, func(store *models.Store) error {
		if !store.CanManageStaff(userID) {
			return fmt.Errorf("%w: you cannot manage store staff", errs.ErrForbidden)
		}
		if !store.RemoveAdmin(adminUserID) {
			return fmt.Errorf("%w: store admin not found", errs.ErrNotFound)
		}
		return nil
	})
}

// List returns public, active storefronts.
func (s *StoreService) List(ctx context.Context, filter repository.StoreFilter) ([]models.PublicStore, int64, error) {
	filter.PublicOnly = true
	stores, total, err := s.stores.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	now := s.opts.Now()
	out := make([]models.PublicStore, 0, len(stores))
	for i := range stores {
		out = append(out, stores[i].ToPublicJSON(now))
	}
	return out, total, nil
}

func (s *StoreService) AdminList(ctx context.Context, filter repository.StoreFilter) ([]models.Store, int64, error) {
	filter.PublicOnly = false
	return s.stores.List(ctx, filter)
}

func (s *StoreService) SetStatus(ctx context.Context, adminID, id uuid.UUID, status models.StoreStatus) (*models.Store, error) {
	switch status {
	case models.StorePending, models.StoreActive, models.StoreSuspended, models.StoreClosed:
	default:
		return nil, fmt.Errorf("%w: unknown store status %q", errs.ErrBadRequest, status)
	}

	store, err := s.stores.Mutate(ctx, id, func(store *models.Store) error {
		store.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Business(s.opts.Log, "store status changed",
		zap.String("storeId", id.String()),
		zap.String("adminId", adminID.String()),
		zap.String("status", string(status)),
	)
	return store, nil
}

// Verify marks the store verified, or clears the mark.
func (s *StoreService) Verify(ctx context.Context, adminID, id uuid.UUID, verified bool) (*models.Store, error) {
	store, err := s.stores.Mutate(ctx, id, func(store *models.Store) error {
		store.Verification.IsVerified = verified
		store.Verification.VerifiedAt = nil
		if verified {
			now := s.opts.Now()
			store.Verification.VerifiedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Business(s.opts.Log, "store verification changed",
		zap.String("storeId", id.String()),
		zap.String("adminId", adminID.String()),
		zap.Bool("verified", verified),
	)
	return store, nil
}
