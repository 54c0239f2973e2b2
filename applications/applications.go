package applications

import (
	"time"

	"github.com/opla/zoauth/internal/utils"
)

// ValidationPolicy selects how a new user account gets enabled.
type ValidationPolicy string

const (
	ValidationNone  ValidationPolicy = "none"
	ValidationAdmin ValidationPolicy = "admin"
	ValidationMail  ValidationPolicy = "mail"
)

// Policies lists the recognized per-application policy flags. Unknown policy
// fields sent by clients are ignored by construction.
type Policies struct {
	UserNeedEmail      bool             `json:"userNeedEmail"`
	AuthorizeAnonymous bool             `json:"authorizeAnonymous,omitempty"`
	AnonymousSecret    string           `json:"anonymous_secret,omitempty"`
	Validation         ValidationPolicy `json:"validation,omitempty"`
	ResetPassword      bool             `json:"resetPassword,omitempty"`
}

type Application struct {
	ID           string    `json:"id,omitempty"`
	Secret       string    `json:"secret,omitempty"`
	Name         string    `json:"name"`
	URL          string    `json:"url,omitempty"`
	Email        string    `json:"email,omitempty"`
	RedirectURI  string    `json:"redirect_uri,omitempty"`
	GrantType    string    `json:"grant_type,omitempty"`
	Domains      []string  `json:"domains,omitempty"`
	Policies     *Policies `json:"policies,omitempty"`
	CreationDate time.Time `json:"creation_date,omitempty"`
}

// EffectivePolicies returns the application's policies, falling back to the
// defaults for applications registered without any.
func (a *Application) EffectivePolicies() Policies {
	if a.Policies == nil {
		return Policies{UserNeedEmail: true, Validation: ValidationNone}
	}
	policies := *a.Policies
	if policies.Validation == "" {
		policies.Validation = ValidationNone
	}
	return policies
}

// ValidateName checks application name shape: non-empty, at least 3 characters.
func ValidateName(name string) bool {
	return !utils.StringIsEmpty(name) && len(name) >= 3
}
