// Package api defines the wire contract shared with the KM Portal backend:
// endpoint paths and the JSON envelope every endpoint responds with.
package api

import (
	"encoding/json"

	"github.com/Bigfish4tim/km-portal-client/roles"
	"github.com/Bigfish4tim/km-portal-client/users"
)

// Endpoint paths, relative to the configured API base.
const (
	LoginPath    = "/auth/login"
	LogoutPath   = "/auth/logout"
	RegisterPath = "/auth/register"
	RefreshPath  = "/auth/refresh"
	MePath       = "/auth/me"
	HealthPath   = "/health/status"
)

// Envelope is the response shape every backend endpoint uses. Payloads live
// under Data and are decoded per endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginData is the Data payload of a successful login.
type LoginData struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *users.User `json:"user"`
}

// RefreshRequest is the body for POST /auth/refresh. The refresh token rides
// in the body; the request carries no bearer header.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshData is the Data payload of a successful refresh. RefreshToken is
// only set when the backend rotates it.
type RefreshData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// RegisterData is the Data payload of a successful registration.
type RegisterData struct {
	UserID          int64      `json:"userId"`
	Username        string     `json:"username"`
	RoleName        roles.Role `json:"roleName,omitempty"`
	RoleDisplayName string     `json:"roleDisplayName,omitempty"`
}
