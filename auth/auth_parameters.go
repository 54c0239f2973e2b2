package auth

import (
	"github.com/opla/zoauth/applications"
	"github.com/opla/zoauth/users"
)

// AppCredentials identify a client application on routes accepting the
// "application" scope.
type AppCredentials struct {
	ID     string `json:"client_id"`
	Secret string `json:"client_secret"`
}

// RegisterApplicationParams lists every recognized field of an application
// registration; unknown fields sent by callers are ignored by construction.
type RegisterApplicationParams struct {
	ID          string                 `json:"client_id,omitempty"` // set to update an existing application
	Name        string                 `json:"name"`
	URL         string                 `json:"url,omitempty"`
	Email       string                 `json:"email"`
	RedirectURI string                 `json:"redirect_uri,omitempty"`
	GrantType   string                 `json:"grant_type,omitempty"`
	Domains     []string               `json:"domains,omitempty"`
	Policies    *applications.Policies `json:"policies,omitempty"`
}

type RegisterApplicationResult struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type RegisterUserParams struct {
	ClientID        string `json:"client_id"`
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	Password        string `json:"password,omitempty"`
	AnonymousSecret string `json:"anonymous_secret,omitempty"`
	Accept          bool   `json:"accept,omitempty"` // terms acceptance
}

type RegisterUserResult struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type AuthorizeParams struct {
	ClientID    string `json:"client_id"`
	UserID      string `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	Scope       string `json:"scope,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

type AuthorizeResult struct {
	RedirectURI string `json:"redirect_uri"`
}

type AccessTokenParams struct {
	ClientID     string `json:"client_id"`
	GrantType    string `json:"grant_type"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type TokenResult struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type AnonymousParams struct {
	ClientID        string `json:"client_id"`
	AnonymousSecret string `json:"anonymous_secret,omitempty"`
}

type AnonymousResult struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
}

// ValidateUserParams drive the administrative account-state transition.
type ValidateUserParams struct {
	ClientID     string             `json:"client_id"`
	UserID       string             `json:"user_id"`
	AccountState users.AccountState `json:"account_state"`
}

// MailValidationParams drive the mail-link account-state transition.
type MailValidationParams struct {
	ClientID string `json:"client_id"`
	UserID   string `json:"user_id"`
}

type ValidateUserResult struct {
	UserID       string             `json:"user_id"`
	AccountState users.AccountState `json:"account_state"`
}

type ResetPasswordParams struct {
	ClientID string `json:"client_id"`
	Email    string `json:"email"`
}

type ResetPasswordResult struct {
	Email string `json:"email"`
}

type ChangePasswordParams struct {
	Password string `json:"password"`
}

type ChangePasswordResult struct {
	UserID string `json:"user_id"`
}

// ApplicationResult is the sanitized application shape returned to callers:
// the secret never leaves the engine.
type ApplicationResult struct {
	ClientID    string                 `json:"client_id"`
	Name        string                 `json:"name"`
	URL         string                 `json:"url,omitempty"`
	RedirectURI string                 `json:"redirect_uri,omitempty"`
	Policies    *applications.Policies `json:"policies,omitempty"`
}

// UserResult is the sanitized user shape returned to callers: no password,
// no salt, no anonymous secret.
type UserResult struct {
	ID           string             `json:"id"`
	Username     string             `json:"username"`
	Email        string             `json:"email,omitempty"`
	ValidEmail   bool               `json:"valid_email,omitempty"`
	Anonymous    bool               `json:"anonymous,omitempty"`
	AccountState users.AccountState `json:"account_state,omitempty"`
}

// GrantResult carries the sanitized fields of an access decision. Exactly one
// of the three shapes is populated: token session fields, Access == "open",
// or client credentials with scope "application".
type GrantResult struct {
	AccessToken  string `json:"access_token,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Access       string `json:"access,omitempty"`
}
