// Package model owns generation, storage and retrieval of applications,
// users, authentications and sessions through an injected table abstraction.
package model

import (
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/opla/zoauth/storage"
)

const (
	anonymousTokenLength = 6
	accessTokenLength    = 48
	refreshTokenLength   = 32
	userIDLength         = 32
	clientIDLength       = 64

	// Generated ids collide with negligible probability; the bound only
	// guards against a broken random source.
	maxIDAttempts = 5

	// DefaultTokenExpiration is the access token lifetime in seconds.
	DefaultTokenExpiration = int64(3600)

	// DefaultRefreshExpiration is the refresh token lifetime in seconds.
	DefaultRefreshExpiration = int64(30 * 24 * 3600)
)

var (
	ErrUserExists  = errors.New("username / email are already used")
	ErrUnknownUser = errors.New("unknown user")

	// ErrIDGeneration reports id-space exhaustion after bounded retries.
	ErrIDGeneration = errors.New("could not generate a collision-free id")
)

// Accessor exclusively owns the persisted entities.
type Accessor struct {
	store             storage.Store
	tokenExpiration   int64
	refreshExpiration int64
	nowTime           func() time.Time
}

// Option modifies an Accessor instance.
type Option func(*Accessor)

// WithTokenExpiration overrides the access token lifetime in seconds.
func WithTokenExpiration(seconds int64) Option {
	return func(a *Accessor) {
		a.tokenExpiration = seconds
	}
}

// WithRefreshExpiration overrides the refresh token lifetime in seconds.
func WithRefreshExpiration(seconds int64) Option {
	return func(a *Accessor) {
		a.refreshExpiration = seconds
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(a *Accessor) {
		a.nowTime = nowFunc
	}
}

func New(store storage.Store, options ...Option) *Accessor {
	accessor := &Accessor{
		store:             store,
		tokenExpiration:   DefaultTokenExpiration,
		refreshExpiration: DefaultRefreshExpiration,
		nowTime:           time.Now,
	}
	for _, opt := range options {
		opt(accessor)
	}
	return accessor
}

func (a *Accessor) Open() error  { return a.store.Load() }
func (a *Accessor) Close() error { return a.store.Close() }
func (a *Accessor) Reset() error { return a.store.Reset() }

func (a *Accessor) applications() storage.Table {
	return a.store.Table("applications")
}

func (a *Accessor) users() storage.Table {
	return a.store.Table("users")
}

func (a *Accessor) authentications() storage.Table {
	return a.store.Table("authentications")
}

func (a *Accessor) sessions() storage.Table {
	return a.store.Table("sessions")
}

// GenerateAnonymousToken returns the short token embedded in anonymous usernames.
func (a *Accessor) GenerateAnonymousToken() (string, error) {
	return storage.GenerateToken(anonymousTokenLength)
}

// insertWithGeneratedID retries id generation over the storage conditional put
// until the write lands on a free key, bounded by maxIDAttempts.
func insertWithGeneratedID(table storage.Table, length int, encode func(id string) ([]byte, error)) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := storage.GenerateToken(length)
		if err != nil {
			return "", err
		}
		doc, err := encode(id)
		if err != nil {
			return "", err
		}
		err = table.InsertItem(id, doc)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return "", err
		}
	}
	return "", pkgerrors.WithStack(ErrIDGeneration)
}

func marshal(v any) ([]byte, error) {
	doc, err := json.Marshal(v)
	return doc, pkgerrors.Wrap(err, "[model] marshal")
}

func unmarshal(doc []byte, v any) error {
	return pkgerrors.Wrap(json.Unmarshal(doc, v), "[model] unmarshal")
}
