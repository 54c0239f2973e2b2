package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrDuplicateKey is returned by Table.InsertItem when the key already exists.
var ErrDuplicateKey = errors.New("duplicate key")

// Table is a keyed collection of JSON documents. Implementations must provide
// atomic per-key reads and writes; InsertItem is a conditional put used to make
// id generation safe without an engine-level retry loop.
type Table interface {
	// GetItem returns the document stored under key, or nil when absent.
	GetItem(key string) ([]byte, error)

	// SetItem stores doc under key, overwriting any previous document.
	SetItem(key string, doc []byte) error

	// InsertItem stores doc under key only if the key is not already present,
	// returning ErrDuplicateKey otherwise.
	InsertItem(key string, doc []byte) error

	// DeleteItem removes the document stored under key. Deleting an absent
	// key is not an error.
	DeleteItem(key string) error

	// NextItem scans the table in backend iteration order and returns the
	// first document for which match returns true, or nil when none does.
	NextItem(match func(doc []byte) bool) ([]byte, error)

	// GetItems returns every document for which match returns true. A nil
	// match returns all documents.
	GetItems(match func(doc []byte) bool) ([][]byte, error)
}

// Store groups the tables of one database plus its lifecycle.
type Store interface {
	Table(name string) Table

	Load() error
	Flush() error
	Reset() error
	Close() error
}

// GenerateToken returns an opaque random token of exactly length hex
// characters, sourced from crypto/rand.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("[GenerateToken] length must be positive")
	}
	bytes := make([]byte, (length+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", pkgerrors.Wrap(err, "[GenerateToken] rand.Read")
	}
	return hex.EncodeToString(bytes)[:length], nil
}
