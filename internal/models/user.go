package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

// UserStatus enum
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// User is the identity directory consumed by the chat service. Accounts are
// created and managed elsewhere; this service only reads role, status and the
// managed-by reference.
type User struct {
	BaseModel
	Name        string     `gorm:"size:100;not null" json:"name"`
	Email       string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string     `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Phone       string     `gorm:"size:30" json:"phone,omitempty"`
	Role        Role       `gorm:"size:20;default:'user'" json:"role"`
	Status      UserStatus `gorm:"size:20;default:'active'" json:"status"`
	CreatedByID *string    `gorm:"size:36;index" json:"createdBy,omitempty"` // admin that owns this user
	PlanID      *string    `gorm:"size:36" json:"plan,omitempty"`            // subscription plan reference, externally owned

	// Relations (not always preloaded)
	CreatedBy        *User     `gorm:"foreignKey:CreatedByID" json:"-"`
	SentMessages     []Message `gorm:"foreignKey:SenderID" json:"-"`
	ReceivedMessages []Message `gorm:"foreignKey:ReceiverID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// HasActiveSubscription reports whether an admin is allowed to use
// subscription-gated features.
func (u *User) HasActiveSubscription() bool {
	return u.Status == UserStatusActive && u.PlanID != nil && *u.PlanID != ""
}
