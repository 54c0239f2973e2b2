// Package auth implements the authorization core: route permissions, the
// access-grant decision procedure and the account lifecycle operations.
package auth

import (
	"time"

	"github.com/opla/zoauth/applications"
	"github.com/opla/zoauth/internal/utils"
	"github.com/opla/zoauth/model"
	"github.com/opla/zoauth/notification"
)

// Error messages shared across operations.
const (
	msgNoPermissionRoute = "No permission route"
	msgInvalidToken      = "Not valid access token"
	msgInvalidUser       = "Not valid user account"
	msgNotAllowed        = "Not allowed"
	msgNoClient          = "No client found"
	msgWrongParameters   = "Wrong parameters sent"
)

// AuthorizationService is the grant engine. It owns the in-memory route
// registry and orchestrates every account, consent and token operation
// through the model accessor.
type AuthorizationService struct {
	model    *model.Accessor
	routes   map[string]*Route
	notifier notification.Dispatcher // nil disables notifications
	nowTime  func() time.Time
}

// AuthorizationServiceOption modifies the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNotifier injects the outbound notification middleware.
func WithNotifier(notifier notification.Dispatcher) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.notifier = notifier
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

func NewAuthorizationService(accessor *model.Accessor, options ...AuthorizationServiceOption) (*AuthorizationService, error) {
	if accessor == nil {
		return nil, newError(KindStorage, "[NewAuthorizationService] model accessor is required")
	}
	authService := &AuthorizationService{
		model:   accessor,
		routes:  make(map[string]*Route),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(authService)
	}
	return authService, nil
}

// Start opens the underlying store. Routes are not persisted and must be
// redeclared after every start.
func (as *AuthorizationService) Start() error {
	return as.model.Open()
}

func (as *AuthorizationService) Stop() error {
	return as.model.Close()
}

func (as *AuthorizationService) Reset() error {
	return as.model.Reset()
}

// Model exposes the accessor for read-only composition, such as admin
// listings in the transport adapter.
func (as *AuthorizationService) Model() *model.Accessor {
	return as.model
}

// GrantAccess decides whether the holder of accessToken, or of appCredentials,
// may call routeName with method. A supplied token always takes precedence:
// an invalid token denies access even on an open route.
func (as *AuthorizationService) GrantAccess(routeName, method, accessToken string, appCredentials *AppCredentials) (*GrantResult, *Error) {
	route := as.FindRoute(routeName, method)
	if route == nil {
		return nil, newError(KindNotFound, msgNoPermissionRoute)
	}

	if accessToken != "" {
		session, err := as.model.ValidateAccessToken(accessToken)
		if err != nil {
			return nil, storageError(err)
		}
		if session == nil {
			return nil, newError(KindCredentials, msgInvalidToken)
		}
		user, err := as.model.GetUser(session.UserID)
		if err != nil {
			return nil, storageError(err)
		}
		if user == nil {
			return nil, newError(KindCredentials, msgInvalidUser)
		}
		if !route.IsScopeValid(session.Scope) {
			return nil, newError(KindScope, msgNotAllowed)
		}
		return &GrantResult{
			AccessToken:  session.AccessToken,
			ClientID:     session.ClientID,
			ExpiresIn:    session.ExpiresIn,
			Scope:        session.Scope,
			UserID:       session.UserID,
			RefreshToken: session.RefreshToken,
		}, nil
	}

	if route.IsOpen() {
		return &GrantResult{Access: "open"}, nil
	}

	if route.IsScopeValid("application") && appCredentials != nil {
		valid, err := as.validateApplicationCredentials(appCredentials)
		if err != nil {
			return nil, storageError(err)
		}
		if valid {
			return &GrantResult{ClientID: appCredentials.ID, Scope: "application"}, nil
		}
	}

	return nil, newError(KindUnauthorized, msgNoPermissionRoute)
}

func (as *AuthorizationService) validateApplicationCredentials(credentials *AppCredentials) (bool, error) {
	if credentials.ID == "" || credentials.Secret == "" {
		return false, nil
	}
	app, err := as.model.GetApplication(credentials.ID, "")
	if err != nil {
		return false, err
	}
	return app != nil && app.Secret == credentials.Secret, nil
}

// RegisterApplication registers a client application and returns its
// generated credentials. Names are unique across applications; supplying an
// existing id updates the mutable fields (policies) in place.
func (as *AuthorizationService) RegisterApplication(params RegisterApplicationParams) (*RegisterApplicationResult, *Error) {
	if !applications.ValidateName(params.Name) {
		return nil, validationError("Wrong name sent", "invalid_name")
	}
	if !utils.IsEmail(params.Email) {
		return nil, validationError("Wrong email sent", "invalid_email")
	}

	existing, err := as.model.GetApplicationByName(params.Name)
	if err != nil {
		return nil, storageError(err)
	}
	if existing != nil && existing.ID != params.ID {
		return nil, validationError("Can't register this application name", "duplicate_name")
	}

	app, err := as.model.SetApplication(&applications.Application{
		ID:          params.ID,
		Name:        params.Name,
		URL:         params.URL,
		Email:       params.Email,
		RedirectURI: params.RedirectURI,
		GrantType:   params.GrantType,
		Domains:     params.Domains,
		Policies:    params.Policies,
	})
	if err != nil {
		return nil, storageError(err)
	}
	if app == nil {
		return nil, newError(KindStorage, "Can't save application")
	}
	return &RegisterApplicationResult{ClientID: app.ID, ClientSecret: app.Secret}, nil
}

// GetApplication returns the sanitized application record.
func (as *AuthorizationService) GetApplication(id string) (*ApplicationResult, *Error) {
	app, err := as.model.GetApplication(id, "")
	if err != nil {
		return nil, storageError(err)
	}
	if app == nil {
		return nil, newError(KindNotFound, msgNoClient)
	}
	var policies *applications.Policies
	if app.Policies != nil {
		sanitized := *app.Policies
		sanitized.AnonymousSecret = ""
		policies = &sanitized
	}
	return &ApplicationResult{
		ClientID:    app.ID,
		Name:        app.Name,
		URL:         app.URL,
		RedirectURI: app.RedirectURI,
		Policies:    policies,
	}, nil
}

// GetUser returns the sanitized user record.
func (as *AuthorizationService) GetUser(id string) (*UserResult, *Error) {
	user, err := as.model.GetUser(id)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, newError(KindNotFound, msgInvalidUser)
	}
	sanitized := user.Sanitized()
	return &UserResult{
		ID:           sanitized.ID,
		Username:     sanitized.Username,
		Email:        sanitized.Email,
		ValidEmail:   sanitized.ValidEmail,
		Anonymous:    sanitized.Anonymous,
		AccountState: sanitized.AccountState,
	}, nil
}
