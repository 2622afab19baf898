package storage

import (
	"context"
)

// SessionStorage defines interface for storing the client session locally.
// The access token is kept as issued by the server; the file lives in the
// user's home directory with 0600 permissions.
type SessionStorage interface {
	// SaveSession stores the current session, replacing any previous one
	SaveSession(ctx context.Context, session *SessionData) error

	// GetSession retrieves the stored session
	// Returns ErrSessionNotFound if no session exists
	GetSession(ctx context.Context) (*SessionData, error)

	// DeleteSession removes the stored session (logout)
	DeleteSession(ctx context.Context) error

	// IsAuthenticated checks if a non-expired session exists
	IsAuthenticated(ctx context.Context) (bool, error)
}

// SessionData represents a logged-in session on the client
type SessionData struct {
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
	// LastGroup - последняя группа, с которой работал пользователь;
	// команды metrics/exit используют ее как дефолт
	LastGroup string `json:"last_group,omitempty"`
	ExpiresAt int64  `json:"expires_at"`
}
