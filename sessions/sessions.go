package sessions

import (
	"fmt"
	"strings"
	"time"
)

// Session is a stored access/refresh token pair bound to a client and a user.
// Tokens are opaque random strings, never encoded claims.
type Session struct {
	ID               string    `json:"id"`
	AccessToken      string    `json:"access_token"`
	ExpiresIn        int64     `json:"expires_in"` // seconds
	Scope            string    `json:"scope,omitempty"`
	ClientID         string    `json:"client_id"`
	UserID           string    `json:"user_id"`
	Created          time.Time `json:"created"`
	Last             time.Time `json:"last,omitempty"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	RefreshExpiresIn int64     `json:"refresh_expires_in,omitempty"` // seconds
	RefreshCreated   time.Time `json:"refresh_created,omitempty"`
}

// Key builds the primary session key for password-grant issuance.
func Key(clientID, userID string) string {
	return fmt.Sprintf("%s-%s", clientID, userID)
}

const activationKeyPrefix = "activation-"

// ActivationKey builds the key of a one-time activation session. Keyed by its
// own token, an activation session never collides with the password-grant
// session of the same (client, user) pair.
func ActivationKey(accessToken string) string {
	return activationKeyPrefix + accessToken
}

// Activation reports whether the session is a one-time activation token
// rather than a password-grant session.
func (s *Session) Activation() bool {
	return strings.HasPrefix(s.ID, activationKeyPrefix)
}

// Expired reports whether the access token is past its lifetime.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.Created.Add(time.Duration(s.ExpiresIn) * time.Second))
}

// RefreshExpired reports whether the refresh token is past its lifetime.
// A session without a refresh token cannot be refreshed.
func (s *Session) RefreshExpired(now time.Time) bool {
	if s.RefreshToken == "" {
		return true
	}
	return now.After(s.RefreshCreated.Add(time.Duration(s.RefreshExpiresIn) * time.Second))
}
