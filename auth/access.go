package auth

import (
	"github.com/opla/zoauth/applications"
	"github.com/opla/zoauth/authentications"
	"github.com/opla/zoauth/internal/utils"
	"github.com/opla/zoauth/users"
)

// AuthorizeAccess records a user's consent to access resources through a
// client application: it upserts the Authentication binding and returns the
// redirect target. The user is resolved by id or by credentials, and the
// account must pass the enablement gate.
func (as *AuthorizationService) AuthorizeAccess(params AuthorizeParams) (*AuthorizeResult, *Error) {
	app, err := as.model.GetApplication(params.ClientID, "")
	if err != nil {
		return nil, storageError(err)
	}
	if app == nil {
		return nil, newError(KindNotFound, msgNoClient)
	}

	var user *users.User
	switch {
	case !utils.StringIsEmpty(params.UserID):
		user, err = as.model.GetUser(params.UserID)
		if err != nil {
			return nil, storageError(err)
		}
		if user == nil {
			return nil, newError(KindNotFound, "No valid user_id")
		}
	case params.Username != "" && params.Password != "":
		user, err = as.model.ValidateCredentials(params.Username, params.Password)
		if err != nil {
			return nil, storageError(err)
		}
		if user == nil {
			return nil, newError(KindCredentials, "Wrong credentials")
		}
	default:
		return nil, validationError("Not valid", "missing_user")
	}

	if authErr := as.isAccountEnable(user, app.EffectivePolicies()); authErr != nil {
		return nil, authErr
	}

	redirectURI := as.model.ValidateRedirectURI(params.RedirectURI)
	stored, err := as.model.SetAuthentication(&authentications.Authentication{
		ClientID:    app.ID,
		UserID:      user.ID,
		Scope:       params.Scope,
		RedirectURI: redirectURI,
	})
	if err != nil {
		return nil, storageError(err)
	}
	if stored == nil {
		return nil, newError(KindStorage, "Can't authenticate")
	}
	return &AuthorizeResult{RedirectURI: redirectURI}, nil
}

// RequestAccessToken dispatches on grant_type. Only the resource-owner
// password and refresh-token grants are supported.
func (as *AuthorizationService) RequestAccessToken(params AccessTokenParams) (*TokenResult, *Error) {
	switch params.GrantType {
	case "password":
		return as.requestGrantTypePassword(params)
	case "refresh_token":
		return as.requestGrantTypeRefreshToken(params)
	default:
		return nil, newErrorf(KindValidation, "Unknown grant type: %s", params.GrantType)
	}
}

// requestGrantTypePassword issues or renews the session for an authentified
// (client, user) pair, scoped to the stored authentication's scope.
func (as *AuthorizationService) requestGrantTypePassword(params AccessTokenParams) (*TokenResult, *Error) {
	user, err := as.model.ValidateCredentials(params.Username, params.Password)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, newError(KindCredentials, "Can't authenticate")
	}

	app, err := as.model.GetApplication(params.ClientID, "")
	if err != nil {
		return nil, storageError(err)
	}
	policies := applications.Policies{UserNeedEmail: true}
	if app != nil {
		policies = app.EffectivePolicies()
	}
	if authErr := as.isAccountEnable(user, policies); authErr != nil {
		return nil, authErr
	}

	authentication, err := as.model.GetAuthentication(params.ClientID, user.ID)
	if err != nil {
		return nil, storageError(err)
	}
	if authentication == nil {
		return nil, newError(KindUnauthorized, "Not authentified")
	}

	session, err := as.model.GetAccessToken(params.ClientID, user.ID, authentication.Scope, 0)
	if err != nil {
		return nil, storageError(err)
	}
	if session == nil {
		return nil, newError(KindStorage, "Can't create session")
	}
	return &TokenResult{
		AccessToken:  session.AccessToken,
		ExpiresIn:    session.ExpiresIn,
		Scope:        session.Scope,
		RefreshToken: session.RefreshToken,
	}, nil
}

// requestGrantTypeRefreshToken rotates an existing session's access and
// refresh pair, preserving its scope.
func (as *AuthorizationService) requestGrantTypeRefreshToken(params AccessTokenParams) (*TokenResult, *Error) {
	session, err := as.model.RefreshAccessToken(params.RefreshToken)
	if err != nil {
		return nil, storageError(err)
	}
	if session == nil {
		return nil, newError(KindCredentials, "Not valid refresh token")
	}
	return &TokenResult{
		AccessToken:  session.AccessToken,
		ExpiresIn:    session.ExpiresIn,
		Scope:        session.Scope,
		RefreshToken: session.RefreshToken,
	}, nil
}
