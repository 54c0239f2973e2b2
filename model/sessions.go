package model

import (
	"encoding/json"
	"time"

	"github.com/opla/zoauth/sessions"
	"github.com/opla/zoauth/storage"
)

// GetAccessToken issues or renews the session for a (client, user) pair under
// the password grant. There is at most one such session: a live one is renewed
// in place, an expired one is reissued under the same key. expiration is in
// seconds; zero selects the configured default.
func (a *Accessor) GetAccessToken(clientID, userID, scope string, expiration int64) (*sessions.Session, error) {
	if clientID == "" || userID == "" {
		return nil, nil
	}
	if expiration <= 0 {
		expiration = a.tokenExpiration
	}
	table := a.sessions()
	now := a.nowTime()
	key := sessions.Key(clientID, userID)

	doc, err := table.GetItem(key)
	if err != nil {
		return nil, err
	}
	var session *sessions.Session
	if doc != nil {
		var stored sessions.Session
		if err := unmarshal(doc, &stored); err != nil {
			return nil, err
		}
		session = &stored
	}

	if session == nil || session.Expired(now) {
		fresh, err := a.newSession(key, clientID, userID, scope, expiration, now)
		if err != nil {
			return nil, err
		}
		session = fresh
	} else {
		session.Last = now
		if scope != "" {
			session.Scope = scope
		}
	}

	doc, err = marshal(session)
	if err != nil {
		return nil, err
	}
	if err := table.SetItem(key, doc); err != nil {
		return nil, err
	}
	return session, nil
}

func (a *Accessor) newSession(key, clientID, userID, scope string, expiration int64, now time.Time) (*sessions.Session, error) {
	accessToken, err := storage.GenerateToken(accessTokenLength)
	if err != nil {
		return nil, err
	}
	refreshToken, err := storage.GenerateToken(refreshTokenLength)
	if err != nil {
		return nil, err
	}
	return &sessions.Session{
		ID:               key,
		AccessToken:      accessToken,
		ExpiresIn:        expiration,
		Scope:            scope,
		ClientID:         clientID,
		UserID:           userID,
		Created:          now,
		RefreshToken:     refreshToken,
		RefreshExpiresIn: a.refreshExpiration,
		RefreshCreated:   now,
	}, nil
}

// CreateActivationToken issues a one-time token for mail validation and
// password reset. It is stored as a session under its own key, so the
// password-grant session of the pair is never touched, and carries no refresh
// token. expiration is in seconds; zero selects the configured default.
func (a *Accessor) CreateActivationToken(clientID, userID, scope string, expiration int64) (*sessions.Session, error) {
	if clientID == "" || userID == "" {
		return nil, nil
	}
	if expiration <= 0 {
		expiration = a.tokenExpiration
	}
	accessToken, err := storage.GenerateToken(accessTokenLength)
	if err != nil {
		return nil, err
	}
	session := &sessions.Session{
		ID:          sessions.ActivationKey(accessToken),
		AccessToken: accessToken,
		ExpiresIn:   expiration,
		Scope:       scope,
		ClientID:    clientID,
		UserID:      userID,
		Created:     a.nowTime(),
	}
	doc, err := marshal(session)
	if err != nil {
		return nil, err
	}
	if err := a.sessions().InsertItem(session.ID, doc); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSessionByID drops a session by its storage key, which is how one-time
// activation tokens are consumed.
func (a *Accessor) DeleteSessionByID(id string) error {
	return a.sessions().DeleteItem(id)
}

// RefreshAccessToken looks a session up by refresh token and reissues the
// access and refresh pair, preserving the stored scope. Returns nil when the
// token is unknown; an expired refresh token is deleted and reported as nil.
func (a *Accessor) RefreshAccessToken(refreshToken string) (*sessions.Session, error) {
	if refreshToken == "" {
		return nil, nil
	}
	table := a.sessions()
	now := a.nowTime()

	session, err := a.scanSessions(func(s *sessions.Session) bool {
		return s.RefreshToken == refreshToken
	})
	if err != nil || session == nil {
		return nil, err
	}
	if session.RefreshExpired(now) {
		if err := table.DeleteItem(session.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	accessToken, err := storage.GenerateToken(accessTokenLength)
	if err != nil {
		return nil, err
	}
	rotated, err := storage.GenerateToken(refreshTokenLength)
	if err != nil {
		return nil, err
	}
	session.AccessToken = accessToken
	session.Created = now
	session.Last = now
	session.RefreshToken = rotated
	session.RefreshCreated = now

	doc, err := marshal(session)
	if err != nil {
		return nil, err
	}
	if err := table.SetItem(session.ID, doc); err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateAccessToken scans for the session holding the given access token.
// Expiry is checked lazily here: an expired session is deleted and reported
// as nil, there is no background sweep.
func (a *Accessor) ValidateAccessToken(accessToken string) (*sessions.Session, error) {
	if accessToken == "" {
		return nil, nil
	}
	session, err := a.scanSessions(func(s *sessions.Session) bool {
		return s.AccessToken == accessToken
	})
	if err != nil || session == nil {
		return nil, err
	}
	if session.Expired(a.nowTime()) {
		if err := a.sessions().DeleteItem(session.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return session, nil
}

// ValidateRefreshToken scans for the live session holding the given refresh
// token without rotating it.
func (a *Accessor) ValidateRefreshToken(refreshToken string) (*sessions.Session, error) {
	if refreshToken == "" {
		return nil, nil
	}
	session, err := a.scanSessions(func(s *sessions.Session) bool {
		return s.RefreshToken == refreshToken
	})
	if err != nil || session == nil {
		return nil, err
	}
	if session.RefreshExpired(a.nowTime()) {
		return nil, nil
	}
	return session, nil
}

// DeleteSession drops a session by its composite key.
func (a *Accessor) DeleteSession(clientID, userID string) error {
	return a.sessions().DeleteItem(sessions.Key(clientID, userID))
}

func (a *Accessor) scanSessions(match func(s *sessions.Session) bool) (*sessions.Session, error) {
	var found *sessions.Session
	_, err := a.sessions().NextItem(func(doc []byte) bool {
		var session sessions.Session
		if json.Unmarshal(doc, &session) != nil {
			return false
		}
		if match(&session) {
			found = &session
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
