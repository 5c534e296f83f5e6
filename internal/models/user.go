package models

import "time"

// DefaultRole is assigned at signup when no role is given.
const DefaultRole = "student"

// User is a stored account. The ID is the store's own identifier
// (Mongo ObjectID hex or Postgres UUID).
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Password   string    `json:"-"` // never serialize
	Role       string    `json:"role"`
	University string    `json:"university"`
	Bio        string    `json:"bio"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Summary is the user shape returned alongside a token.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserSummary is the user part of the signup/login response.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserUpdate carries the fields of a profile update. A nil field was
// absent from the request and is left unchanged.
type UserUpdate struct {
	Name       *string
	Email      *string
	Role       *string
	University *string
	Bio        *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil && u.University == nil && u.Bio == nil
}

// Apply copies the present fields onto user.
func (u UserUpdate) Apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
	if u.University != nil {
		user.University = *u.University
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
}

// SignupRequest is the JSON body for POST /api/auth/signup.
type SignupRequest struct {
	Name       string `json:"name"       validate:"required"`
	Email      string `json:"email"      validate:"required"`
	Password   string `json:"password"   validate:"required"`
	Role       string `json:"role"`
	University string `json:"university"`
	Bio        string `json:"bio"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateMeRequest is the JSON body for PUT /api/auth/me.
type UpdateMeRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Role       *string `json:"role"`
	University *string `json:"university"`
	Bio        *string `json:"bio"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}
