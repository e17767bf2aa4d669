package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleStoreOwner Role = "store_owner"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

type Permission string

const (
	PermManageUsers      Permission = "manage_users"
	PermManageStores     Permission = "manage_stores"
	PermManageProducts   Permission = "manage_products"
	PermManageCategories Permission = "manage_categories"
	PermManageAds        Permission = "manage_ads"
	PermViewAnalytics    Permission = "view_analytics"
	PermManagePayments   Permission = "manage_payments"
	PermSystemConfig     Permission = "system_config"
	PermModerateContent  Permission = "moderate_content"
)

// Permissions lists every assignable user permission.
var Permissions = []Permission{
	PermManageUsers, PermManageStores, PermManageProducts, PermManageCategories,
	PermManageAds, PermViewAnalytics, PermManagePayments, PermSystemConfig, PermModerateContent,
}

// adminPermissions are implied by the admin role.
var adminPermissions = map[Permission]bool{
	PermManageUsers:      true,
	PermManageStores:     true,
	PermManageProducts:   true,
	PermViewAnalytics:    true,
	PermManageCategories: true,
	PermManageAds:        true,
	PermModerateContent:  true,
}

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
	UserBanned    UserStatus = "banned"
	UserPending   UserStatus = "pending"
)

type UserLocation struct {
	City      string   `json:"city,omitempty"`
	State     string   `json:"state,omitempty"`
	Country   string   `json:"country,omitempty"`
	ZipCode   string   `json:"zipCode,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type NotificationPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

type PrivacyPreferences struct {
	ShowPhone    bool `json:"showPhone"`
	ShowEmail    bool `json:"showEmail"`
	ShowLocation bool `json:"showLocation"`
}

type UserPreferences struct {
	Notifications NotificationPreferences `gorm:"embedded;embeddedPrefix:notify_" json:"notifications"`
	Privacy       PrivacyPreferences      `gorm:"embedded;embeddedPrefix:privacy_" json:"privacy"`
	Language      string                  `json:"language"`
	Currency      string                  `json:"currency"`
}

type UserStats struct {
	TotalProducts  int        `json:"totalProducts"`
	TotalSales     int        `json:"totalSales"`
	TotalPurchases int        `json:"totalPurchases"`
	Rating         float64    `json:"rating"`
	ReviewCount    int        `json:"reviewCount"`
	JoinedAt       time.Time  `json:"joinedAt"`
	LastActive     *time.Time `json:"lastActive,omitempty"`
}

// User is a marketplace account. Secrets never leave the process.
type User struct {
	BaseModel
	FirstName              string          `json:"firstName"`
	LastName               string          `json:"lastName"`
	Email                  string          `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Phone                  *string         `gorm:"uniqueIndex" json:"phone,omitempty"`
	PasswordHash           string          `gorm:"not null" json:"-"`
	Avatar                 string          `json:"avatar,omitempty"`
	Bio                    string          `json:"bio,omitempty"`
	Role                   Role            `gorm:"type:varchar(20);index" json:"role"`
	Permissions            pq.StringArray  `gorm:"type:text[]" json:"permissions"`
	EmailVerified          bool            `json:"emailVerified"`
	EmailVerificationToken string          `gorm:"index" json:"-"`
	PhoneVerified          bool            `json:"phoneVerified"`
	PhoneVerificationCode  string          `json:"-"`
	Status                 UserStatus      `gorm:"type:varchar(20);index" json:"status"`
	SuspensionReason       string          `json:"suspensionReason,omitempty"`
	LoginAttempts          int             `json:"-"`
	LockUntil              *time.Time      `json:"-"`
	ResetPasswordToken     string          `gorm:"index" json:"-"`
	ResetPasswordExpires   *time.Time      `json:"-"`
	Location               UserLocation    `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Preferences            UserPreferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	Stats                  UserStats       `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	StoreID                *uuid.UUID      `gorm:"type:uuid" json:"storeId,omitempty"`
}

// NewUser returns a pending account with default preferences. admin and
// super_admin cannot be self-assigned and are downgraded to user.
func NewUser(firstName, lastName, email, phone string, role Role, now time.Time) *User {
	if role != RoleStoreOwner {
		role = RoleUser
	}
	u := &User{
		BaseModel: newBase(now),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Role:      role,
		Status:    UserPending,
		Preferences: UserPreferences{
			Notifications: NotificationPreferences{Email: true, SMS: true, Push: true},
			Privacy:       PrivacyPreferences{ShowPhone: false, ShowEmail: false, ShowLocation: true},
			Language:      "en",
			Currency:      "USD",
		},
		Stats: UserStats{JoinedAt: now},
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		u.Phone = &phone
	}
	return u
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// PhoneNumber returns the phone or "" when none is set.
func (u *User) PhoneNumber() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

// SetPassword replaces the stored hash. Call it only when the password changes.
func (u *User) SetPassword(plain string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// IncrementLoginAttempts records a failed credential check. An expired lock
// restarts the count at 1; reaching the limit while unlocked starts a new lock.
func (u *User) IncrementLoginAttempts(rules Rules, now time.Time) {
	if u.LockUntil != nil && !u.LockUntil.After(now) {
		u.LoginAttempts = 1
		u.LockUntil = nil
		return
	}

	u.LoginAttempts++
	if u.LoginAttempts >= rules.MaxLoginAttempts && !u.IsLocked(now) {
		until := now.Add(rules.LockDuration)
		u.LockUntil = &until
	}
}

func (u *User) ResetLoginAttempts() {
	u.LoginAttempts = 0
	u.LockUntil = nil
}

// RecordLogin resets the lockout state and stamps activity.
func (u *User) RecordLogin(now time.Time) {
	u.ResetLoginAttempts()
	u.Stats.LastActive = &now
}

func (u *User) HasPermission(p Permission) bool {
	switch u.Role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return adminPermissions[p]
	}
	for _, granted := range u.Permissions {
		if Permission(granted) == p {
			return true
		}
	}
	return false
}

// IsStaff reports whether the account belongs to the admin console.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

func (u *User) CanManageStore(storeID uuid.UUID) bool {
	if u.IsStaff() {
		return true
	}
	return u.StoreID != nil && *u.StoreID == storeID
}

// VerifyEmail marks the email verified and clears the pending token.
func (u *User) VerifyEmail() {
	u.EmailVerified = true
	u.EmailVerificationToken = ""
	u.activateIfVerified()
}

// VerifyPhone marks the phone verified and clears the pending code.
func (u *User) VerifyPhone() {
	u.PhoneVerified = true
	u.PhoneVerificationCode = ""
	u.activateIfVerified()
}

// activateIfVerified moves a pending account to active once the email is
// verified and the phone is verified or absent. Suspended and banned accounts
// stay as they are.
func (u *User) activateIfVerified() {
	if u.Status != UserPending {
		return
	}
	if u.EmailVerified && (u.PhoneVerified || u.PhoneNumber() == "") {
		u.Status = UserActive
	}
}

// PublicUser is the privacy-filtered view of a User.
type PublicUser struct {
	User
	FullName string        `json:"fullName"`
	Email    string        `json:"email,omitempty"`
	Phone    *string       `json:"phone,omitempty"`
	Location *UserLocation `json:"location,omitempty"`
}

// ToPublicJSON hides phone, email and location unless the user opted in.
func (u *User) ToPublicJSON() PublicUser {
	out := PublicUser{User: *u, FullName: u.FullName()}
	privacy := u.Preferences.Privacy
	if privacy.ShowEmail {
		out.Email = u.Email
	}
	if privacy.ShowPhone {
		out.Phone = u.Phone
	}
	if privacy.ShowLocation {
		loc := u.Location
		out.Location = &loc
	}
	return out
}
