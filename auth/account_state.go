package auth

import (
	"github.com/opla/zoauth/applications"
	"github.com/opla/zoauth/authentications"
	"github.com/opla/zoauth/users"
)

// Account-state reason codes carried by validation errors, so the transport
// adapter can choose a response shape without parsing messages.
const (
	ReasonAccountDisabled = "account_disabled"
	ReasonPendingAdmin    = "pending_admin_validation"
	ReasonPendingMail     = "pending_mail_validation"
)

// isAccountEnable gates authentication on the account state. Disabled
// accounts always fail with a generic message; pending accounts fail with a
// hint derived from the application's validation policy.
func (as *AuthorizationService) isAccountEnable(user *users.User, policies applications.Policies) *Error {
	switch user.AccountState {
	case "", users.AccountStateEnabled:
		return nil
	case users.AccountStateDisabled:
		return validationError("Your account is disabled, please contact your administrator", ReasonAccountDisabled)
	case users.AccountStatePending:
		if policies.Validation == applications.ValidationMail {
			return validationError("Please validate your email address to enable your account", ReasonPendingMail)
		}
		return validationError("Your account is waiting for an administrator's validation", ReasonPendingAdmin)
	default:
		return validationError("Your account is disabled, please contact your administrator", ReasonAccountDisabled)
	}
}

// ValidateUserFromAdmin transitions an account's state from an administrative
// action. accessToken must resolve to an admin-scoped session.
//
// Enabling creates an "owner" authentication for the (client, user) pair and
// notifies the user; disabling deletes that authentication, revoking the
// standing authorization.
func (as *AuthorizationService) ValidateUserFromAdmin(params ValidateUserParams, accessToken string) (*ValidateUserResult, *Error) {
	session, err := as.model.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, storageError(err)
	}
	if session == nil || session.Scope != "admin" {
		return nil, newError(KindUnauthorized, "Unauthorized")
	}

	targetState := params.AccountState
	if targetState != users.AccountStateEnabled && targetState != users.AccountStateDisabled {
		return nil, validationError(msgWrongParameters, "invalid_account_state")
	}

	user, err := as.model.GetUser(params.UserID)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, newError(KindNotFound, "No valid user_id")
	}

	updated, err := as.model.SetUser(&users.User{ID: user.ID, AccountState: targetState})
	if err != nil {
		return nil, storageError(err)
	}

	if targetState == users.AccountStateEnabled {
		if _, err := as.model.SetAuthentication(&authentications.Authentication{
			ClientID: params.ClientID,
			UserID:   user.ID,
			Scope:    "owner",
		}); err != nil {
			return nil, storageError(err)
		}
		if as.notifier != nil && user.Email != "" {
			as.notifier.SendAccountEnable(user.Email, user.Username)
		}
	} else {
		if err := as.model.DeleteAuthentication(params.ClientID, user.ID); err != nil {
			return nil, storageError(err)
		}
	}

	return &ValidateUserResult{UserID: updated.ID, AccountState: updated.AccountState}, nil
}

// ValidateUserFromMail transitions a pending account to enabled from a
// mail-link action. accessToken is the one-time activation token embedded in
// the mail; its bound user must match params.UserID. The token is consumed.
func (as *AuthorizationService) ValidateUserFromMail(params MailValidationParams, accessToken string) (*ValidateUserResult, *Error) {
	session, err := as.model.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, storageError(err)
	}
	if session == nil {
		return nil, newError(KindCredentials, msgInvalidToken)
	}
	if session.Scope != "owner" || session.UserID != params.UserID {
		return nil, newError(KindUnauthorized, "Unauthorized")
	}

	user, err := as.model.GetUser(params.UserID)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, newError(KindNotFound, "No valid user_id")
	}

	updated, err := as.model.SetUser(&users.User{
		ID:           user.ID,
		ValidEmail:   true,
		AccountState: users.AccountStateEnabled,
	})
	if err != nil {
		return nil, storageError(err)
	}

	if _, err := as.model.SetAuthentication(&authentications.Authentication{
		ClientID: session.ClientID,
		UserID:   user.ID,
		Scope:    "owner",
	}); err != nil {
		return nil, storageError(err)
	}

	// The activation token is single use.
	if err := as.model.DeleteSessionByID(session.ID); err != nil {
		return nil, storageError(err)
	}

	if as.notifier != nil && user.Email != "" {
		as.notifier.SendAccountEnable(user.Email, user.Username)
	}

	return &ValidateUserResult{UserID: updated.ID, AccountState: updated.AccountState}, nil
}
