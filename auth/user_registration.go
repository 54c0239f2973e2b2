package auth

import (
	"fmt"

	"github.com/opla/zoauth/applications"
	"github.com/opla/zoauth/internal/utils"
	"github.com/opla/zoauth/users"
)

// activationTokenExpiration is the lifetime of mail-validation and
// password-reset tokens, in seconds.
const activationTokenExpiration = int64(24 * 3600)

// RegisterUser registers a resource-owner user for a client application.
//
// An incomplete username/email/password triple is treated as an anonymous
// registration, which requires the application's authorizeAnonymous policy and
// a matching anonymous secret. A complete triple goes through credential shape
// validation, terms acceptance and duplicate detection, and the account state
// is derived from the application's validation policy.
//
// When accessToken resolves to an admin-scoped session, the registration is
// administrative: terms acceptance is skipped and the account is enabled
// immediately regardless of policy. Supplying any other token is rejected.
func (as *AuthorizationService) RegisterUser(params RegisterUserParams, accessToken string) (*RegisterUserResult, *Error) {
	admin := false
	if accessToken != "" {
		session, err := as.model.ValidateAccessToken(accessToken)
		if err != nil {
			return nil, storageError(err)
		}
		if session == nil || session.Scope != "admin" {
			return nil, newError(KindUnauthorized, "Unauthorized")
		}
		admin = true
	}

	app, err := as.model.GetApplication(params.ClientID, "")
	if err != nil {
		return nil, storageError(err)
	}
	if app == nil {
		return nil, newError(KindNotFound, msgNoClient)
	}
	policies := app.EffectivePolicies()

	incomplete := utils.StringIsEmpty(params.Username) ||
		utils.StringIsEmpty(params.Password) ||
		(policies.UserNeedEmail && utils.StringIsEmpty(params.Email))

	var user *users.User
	if incomplete {
		anonymous, authErr := as.buildAnonymousUser(params, policies)
		if authErr != nil {
			return nil, authErr
		}
		user = anonymous
	} else {
		registered, authErr := as.buildRegisteredUser(params, policies, admin)
		if authErr != nil {
			return nil, authErr
		}
		user = registered
	}

	stored, err := as.model.SetUser(user)
	if err != nil {
		return nil, storageError(err)
	}
	if stored == nil {
		return nil, newError(KindStorage, "Can't save user")
	}

	as.notifyUserCreated(stored, app, policies, admin)

	return &RegisterUserResult{ID: stored.ID, Username: stored.Username, Email: stored.Email}, nil
}

func (as *AuthorizationService) buildAnonymousUser(params RegisterUserParams, policies applications.Policies) (*users.User, *Error) {
	if !policies.AuthorizeAnonymous || params.AnonymousSecret != policies.AnonymousSecret {
		return nil, validationError(msgWrongParameters, "anonymous_not_authorized")
	}
	token, err := as.model.GenerateAnonymousToken()
	if err != nil {
		return nil, storageError(err)
	}
	return &users.User{
		Username:        fmt.Sprintf("anonymous-%s", token),
		ValidEmail:      false,
		Password:        policies.AnonymousSecret,
		Anonymous:       true,
		AnonymousToken:  token,
		AnonymousSecret: params.AnonymousSecret,
		AccountState:    users.AccountStateEnabled,
	}, nil
}

func (as *AuthorizationService) buildRegisteredUser(params RegisterUserParams, policies applications.Policies, admin bool) (*users.User, *Error) {
	if !validateCredentialsValue(params.Username, params.Email, params.Password, policies) {
		return nil, validationError(msgWrongParameters, "invalid_credentials_value")
	}
	if !admin && !params.Accept {
		return nil, validationError(msgWrongParameters, "terms_not_accepted")
	}
	existing, err := as.model.FindUser(params.Username, params.Email)
	if err != nil {
		return nil, storageError(err)
	}
	if existing != nil {
		return nil, validationError(fmt.Sprintf("User exist: %s", params.Username), "duplicate_user")
	}

	// Admin-created accounts bypass the validation policy.
	accountState := users.AccountStateEnabled
	if !admin && policies.Validation != applications.ValidationNone {
		accountState = users.AccountStatePending
	}

	user := &users.User{
		Username:     params.Username,
		Password:     params.Password,
		AccountState: accountState,
	}
	if params.Email != "" {
		user.Email = params.Email
		user.ValidEmail = false
	}
	return user, nil
}

func validateCredentialsValue(username, email, password string, policies applications.Policies) bool {
	if utils.StringIsEmpty(username) {
		return false
	}
	if !users.ValidatePasswordValue(password) {
		return false
	}
	if policies.UserNeedEmail && !utils.IsEmail(email) {
		return false
	}
	if email != "" && !utils.IsEmail(email) {
		return false
	}
	return true
}

func (as *AuthorizationService) notifyUserCreated(user *users.User, app *applications.Application, policies applications.Policies, admin bool) {
	if as.notifier == nil || user.Email == "" {
		return
	}
	activationToken := ""
	if !admin && policies.Validation == applications.ValidationMail {
		session, err := as.model.CreateActivationToken(app.ID, user.ID, "owner", activationTokenExpiration)
		if err == nil && session != nil {
			activationToken = session.AccessToken
		}
	}
	as.notifier.SendUserCreated(user.Email, user.Username, policies.Validation, activationToken)
}

// AnonymousAccess registers an anonymous user, authorizes it against the
// client with scope "anonymous", and requests a password-grant token, as one
// composite flow. The first error at any stage short-circuits.
func (as *AuthorizationService) AnonymousAccess(params AnonymousParams) (*AnonymousResult, *Error) {
	if params.ClientID == "" {
		return nil, newError(KindNotFound, msgNoClient)
	}
	app, err := as.model.GetApplication(params.ClientID, "")
	if err != nil {
		return nil, storageError(err)
	}
	if app == nil || !app.EffectivePolicies().AuthorizeAnonymous {
		return nil, newError(KindNotFound, msgNoClient)
	}

	registered, authErr := as.RegisterUser(RegisterUserParams{
		ClientID:        params.ClientID,
		AnonymousSecret: params.AnonymousSecret,
	}, "")
	if authErr != nil {
		return nil, authErr
	}

	_, authErr = as.AuthorizeAccess(AuthorizeParams{
		ClientID:    params.ClientID,
		Username:    registered.Username,
		Password:    params.AnonymousSecret,
		Scope:       "anonymous",
		RedirectURI: "localhost",
	})
	if authErr != nil {
		return nil, authErr
	}

	token, authErr := as.RequestAccessToken(AccessTokenParams{
		ClientID:  params.ClientID,
		Username:  registered.Username,
		Password:  params.AnonymousSecret,
		GrantType: "password",
	})
	if authErr != nil {
		return nil, authErr
	}

	return &AnonymousResult{
		AccessToken:  token.AccessToken,
		ExpiresIn:    token.ExpiresIn,
		Scope:        token.Scope,
		RefreshToken: token.RefreshToken,
		UserID:       registered.ID,
		Username:     registered.Username,
	}, nil
}
