// Package services holds the marketplace use cases. Services load aggregates
// through the repositories, apply the model mutators and persist the result;
// they never touch the transport.
package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/events"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

// Options carries the collaborators shared by every service.
type Options struct {
	Rules     models.Rules
	JWTSecret string
	TokenTTL  time.Duration
	Log       *zap.Logger
	Events    events.Publisher
	Notifier  Notifier
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Events == nil {
		o.Events = events.NewLogPublisher(o.Log)
	}
	if o.Notifier == nil {
		o.Notifier = NopNotifier{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = 7 * 24 * time.Hour
	}
	return o
}

// Services bundles the use cases consumed by the HTTP handlers.
type Services struct {
	Auth     *AuthService
	Users    *UserService
	Products *ProductService
	Stores   *StoreService
	Catalog  *CatalogService
	Stats    *StatsService
}

func New(repos repository.Repositories, opts Options) *Services {
	opts = opts.withDefaults()
	return &Services{
		Auth:     &AuthService{users: repos.Users, settings: repos.Settings, opts: opts},
		Users:    &UserService{users: repos.Users, products: repos.Products, opts: opts},
		Products: &ProductService{repos: repos, opts: opts},
		Stores:   &StoreService{stores: repos.Stores, users: repos.Users, settings: repos.Settings, opts: opts},
		Catalog:  &CatalogService{categories: repos.Categories, ads: repos.Ads, settings: repos.Settings, opts: opts},
		Stats:    &StatsService{repos: repos, opts: opts},
	}
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyPendingProduct(context.Context, ProductNotification)         {}
func (NopNotifier) NotifyFlaggedProduct(context.Context, ProductNotification, string) {}
func (NopNotifier) NotifyNewStore(context.Context, StoreNotification)                 {}
