// Package domain contains core business types and interfaces.
//
// This file defines the signed-in operator as returned by the remote API.
// The record is what the session's user profile slot holds.
package domain

import "strings"

// Roles known to the admin dashboard.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is the operator profile returned by the remote API at sign-in.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}

// Initials returns up to two initials for the avatar badge.
func (u *User) Initials() string {
	name := u.DisplayName()
	var out []rune
	for _, part := range strings.Fields(name) {
		for _, r := range part {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}

// IsAdmin reports whether the operator has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// SignInParams contains the credentials submitted on the sign-in form.
type SignInParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present.
func (p SignInParams) Validate() error {
	var ve *ValidationError
	if strings.TrimSpace(p.Email) == "" {
		ve = ve.Add("email", "Email is required")
	} else if !strings.Contains(p.Email, "@") {
		ve = ve.Add("email", "Enter a valid email address")
	}
	if p.Password == "" {
		ve = ve.Add("password", "Password is required")
	}
	if ve == nil {
		return nil
	}
	ve.Op = "auth.sign_in"
	return ve
}

// SignInResult is returned by the remote API on successful sign-in.
type SignInResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
