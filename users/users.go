package users

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// AccountState gates authentication independently of credential correctness.
type AccountState string

const (
	AccountStateEnabled  AccountState = "enable"
	AccountStateDisabled AccountState = "disable"
	AccountStatePending  AccountState = "pending_validation"
)

const (
	saltLength      = 32
	hashIterations  = 4096
	hashKeyLength   = 32
	minPasswordSize = 4
)

type User struct {
	ID              string       `json:"id,omitempty"`
	Username        string       `json:"username,omitempty"`
	Email           string       `json:"email,omitempty"`
	ValidEmail      bool         `json:"valid_email,omitempty"`
	Password        string       `json:"password,omitempty"` // salted hash, stripped before leaving the accessor
	Salt            string       `json:"salt,omitempty"`
	CreationDate    time.Time    `json:"creation_date,omitempty"`
	Anonymous       bool         `json:"anonymous,omitempty"`
	AnonymousToken  string       `json:"anonymous_token,omitempty"`
	AnonymousSecret string       `json:"anonymous_secret,omitempty"`
	AccountState    AccountState `json:"account_state,omitempty"`
}

// GenerateSalt returns a fresh random salt for password hashing.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLength/2)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "[GenerateSalt] rand.Read")
	}
	return hex.EncodeToString(salt), nil
}

// HashPassword derives a salted hash from a cleartext password.
func HashPassword(password, salt string) string {
	hash := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, hashKeyLength, sha256.New)
	return hex.EncodeToString(hash)
}

// ValidatePasswordValue checks minimal password shape for registration.
func ValidatePasswordValue(password string) bool {
	return len(password) >= minPasswordSize
}

// CheckPassword compares a cleartext password against the stored hash. Records
// imported from systems without hashing hold the raw password, so raw equality
// is accepted as a fallback.
func (u *User) CheckPassword(password string) bool {
	if password == "" || u.Password == "" {
		return false
	}
	hashed := HashPassword(password, u.Salt)
	if subtle.ConstantTimeCompare([]byte(hashed), []byte(u.Password)) == 1 {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(u.Password)) == 1
}

// Matches reports whether the user owns the given username or email,
// case-insensitively. Email wins over username, matching lookup order.
func (u *User) Matches(username, email string) bool {
	if email != "" && strings.EqualFold(u.Email, email) {
		return true
	}
	return username != "" && strings.EqualFold(u.Username, username)
}

// MatchesLogin reports whether login equals the username or the email,
// case-insensitively.
func (u *User) MatchesLogin(login string) bool {
	return strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login)
}

// Sanitized returns a copy safe to hand to callers: no password, no salt.
func (u *User) Sanitized() *User {
	sanitized := *u
	sanitized.Password = ""
	sanitized.Salt = ""
	return &sanitized
}

// Enabled reports whether the account may authenticate.
func (u *User) Enabled() bool {
	return u.AccountState == "" || u.AccountState == AccountStateEnabled
}
