package model

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/opla/zoauth/internal/utils"
	"github.com/opla/zoauth/users"
)

// SetUser persists a user and returns the sanitized record.
//
// On create (no id) it assigns an id and a creation date, hashes the password
// with a fresh salt, and rejects when the (username, email) pair already
// resolves to an existing user. On update (id given) it merges non-empty
// fields into the stored record and re-salts when the password changes.
func (a *Accessor) SetUser(user *users.User) (*users.User, error) {
	table := a.users()

	if user.ID == "" {
		existing, err := a.FindUser(user.Username, user.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, pkgerrors.WithStack(ErrUserExists)
		}
		created := *user
		created.CreationDate = a.nowTime()
		if created.Password != "" {
			salt, err := users.GenerateSalt()
			if err != nil {
				return nil, err
			}
			created.Salt = salt
			created.Password = users.HashPassword(user.Password, salt)
		}
		id, err := insertWithGeneratedID(table, userIDLength, func(id string) ([]byte, error) {
			created.ID = id
			return marshal(&created)
		})
		if err != nil {
			return nil, err
		}
		created.ID = id
		if err := a.store.Flush(); err != nil {
			return nil, err
		}
		return created.Sanitized(), nil
	}

	stored, err := a.GetUser(user.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, pkgerrors.WithStack(ErrUnknownUser)
	}
	merged := mergeUser(stored, user)
	if user.Password != "" {
		salt, err := users.GenerateSalt()
		if err != nil {
			return nil, err
		}
		merged.Salt = salt
		merged.Password = users.HashPassword(user.Password, salt)
	}
	doc, err := marshal(merged)
	if err != nil {
		return nil, err
	}
	if err := table.SetItem(merged.ID, doc); err != nil {
		return nil, err
	}
	if err := a.store.Flush(); err != nil {
		return nil, err
	}
	return merged.Sanitized(), nil
}

func mergeUser(stored, update *users.User) *users.User {
	merged := *stored
	if update.Username != "" {
		merged.Username = update.Username
	}
	if update.Email != "" {
		merged.Email = update.Email
		merged.ValidEmail = update.ValidEmail
	} else if update.ValidEmail {
		merged.ValidEmail = true
	}
	if update.AccountState != "" {
		merged.AccountState = update.AccountState
	}
	if update.AnonymousToken != "" {
		merged.AnonymousToken = update.AnonymousToken
	}
	if update.AnonymousSecret != "" {
		merged.AnonymousSecret = update.AnonymousSecret
	}
	return &merged
}

// GetUser looks a user up by id. The raw record stays inside the accessor;
// callers that need it sanitized use Sanitized().
func (a *Accessor) GetUser(id string) (*users.User, error) {
	if id == "" {
		return nil, nil
	}
	doc, err := a.users().GetItem(id)
	if err != nil || doc == nil {
		return nil, err
	}
	var user users.User
	if err := unmarshal(doc, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

// FindUser scans for the first user owning the given username or email,
// case-insensitively. Scan order is the backend iteration order.
func (a *Accessor) FindUser(username, email string) (*users.User, error) {
	if username == "" && email == "" {
		return nil, nil
	}
	return a.scanUsers(func(u *users.User) bool {
		return u.Matches(username, email)
	})
}

// GetUserByNameOrEmail resolves a login that may be a username or an email.
func (a *Accessor) GetUserByNameOrEmail(login string) (*users.User, error) {
	if utils.StringIsEmpty(login) {
		return nil, nil
	}
	return a.scanUsers(func(u *users.User) bool {
		return u.MatchesLogin(login)
	})
}

func (a *Accessor) scanUsers(match func(u *users.User) bool) (*users.User, error) {
	var found *users.User
	_, err := a.users().NextItem(func(doc []byte) bool {
		var user users.User
		if json.Unmarshal(doc, &user) != nil {
			return false
		}
		if match(&user) {
			found = &user
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ValidateCredentials resolves login by username or email and compares the
// password against the stored salted hash. Returns the sanitized user, or nil
// on any mismatch.
func (a *Accessor) ValidateCredentials(login, password string) (*users.User, error) {
	if utils.StringIsEmpty(password) {
		return nil, nil
	}
	user, err := a.GetUserByNameOrEmail(login)
	if err != nil || user == nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, nil
	}
	return user.Sanitized(), nil
}

// UserWithScope joins a user with its authentication scope for one client.
type UserWithScope struct {
	*users.User
	Scope string `json:"scope,omitempty"`
}

// RetrieveUsers lists users, optionally filtered on the anonymous flag, each
// joined with the scope of its authentication for clientID when present.
func (a *Accessor) RetrieveUsers(clientID string, anonymous *bool) ([]UserWithScope, error) {
	docs, err := a.users().GetItems(nil)
	if err != nil {
		return nil, err
	}
	results := make([]UserWithScope, 0, len(docs))
	for _, doc := range docs {
		var user users.User
		if err := unmarshal(doc, &user); err != nil {
			return nil, err
		}
		if anonymous != nil && user.Anonymous != *anonymous {
			continue
		}
		entry := UserWithScope{User: user.Sanitized()}
		if clientID != "" {
			auth, err := a.GetAuthentication(clientID, user.ID)
			if err != nil {
				return nil, err
			}
			if auth != nil {
				entry.Scope = auth.Scope
			}
		}
		results = append(results, entry)
	}
	return results, nil
}
