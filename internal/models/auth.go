package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the sign-up form.
type RegisterRequest struct {
	Username   string   `json:"username" form:"username" validate:"required,min=4,max=64"`
	Password   string   `json:"password" form:"password" validate:"required,min=6"`
	Role       UserRole `json:"role" form:"role" validate:"required,oneof=student teacher"`
	SecretCode string   `json:"secret_code" form:"secret_code" validate:"required"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" form:"username" validate:"required"`
	Password  string `json:"password" form:"password" validate:"required"`
	IP        string `json:"-" form:"-"`
	UserAgent string `json:"-" form:"-"`
}

// LoginResponse returns the authenticated user and a bearer token for API clients.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

// SessionUser is the identity attached to an authenticated request.
type SessionUser struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

// IsTeacher reports whether the identity carries the teacher role.
func (u *SessionUser) IsTeacher() bool {
	return u != nil && u.Role == RoleTeacher
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}
