package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// Role is the platform role carried in the bearer token.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleAuthor Role = "AUTHOR"
)

// IsStaff reports whether the role may manage other users' content.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleEditor
}

// User is the identity record. Users are soft-deleted so ledger rows that
// reference them stay intact.
type User struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Name             string         `json:"name" gorm:"size:100"`
	Username         string         `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email            string         `json:"email" gorm:"uniqueIndex;not null"`
	Role             Role           `json:"role" gorm:"type:varchar(10);not null;default:'AUTHOR'"`
	PasswordHash     *string        `json:"-"`                    // nil for federated accounts
	FirebaseUID      *string        `json:"-" gorm:"uniqueIndex"` // Link to Firebase User UID
	StripeCustomerID *string        `json:"-" gorm:"column:stripe_customer_id;uniqueIndex"`
	Bio              string         `json:"bio"`
	Avatar           string         `json:"avatar"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserCompact is the public profile subset returned by the ledgers.
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

// ToCompact returns the public profile fields of the user.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Avatar:   u.Avatar,
	}
}

// PublicProfile is a user profile with relationship counts.
type PublicProfile struct {
	UserCompact
	Bio            string `json:"bio"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name   string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Bio    string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Avatar string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
