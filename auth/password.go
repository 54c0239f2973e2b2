package auth

import (
	"github.com/opla/zoauth/internal/utils"
	"github.com/opla/zoauth/users"
)

// ResetPasswordRequest starts the password reset flow: it issues a short-lived
// "owner"-scoped token for the account owning the email and mails the reset
// link. Requires the application's resetPassword policy.
func (as *AuthorizationService) ResetPasswordRequest(params ResetPasswordParams) (*ResetPasswordResult, *Error) {
	app, err := as.model.GetApplication(params.ClientID, "")
	if err != nil {
		return nil, storageError(err)
	}
	if app == nil {
		return nil, newError(KindNotFound, msgNoClient)
	}
	if !app.EffectivePolicies().ResetPassword {
		return nil, validationError(msgWrongParameters, "reset_password_disabled")
	}
	if !utils.IsEmail(params.Email) {
		return nil, validationError("Wrong email sent", "invalid_email")
	}

	user, err := as.model.FindUser("", params.Email)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, newError(KindNotFound, msgInvalidUser)
	}

	session, err := as.model.CreateActivationToken(app.ID, user.ID, "owner", activationTokenExpiration)
	if err != nil {
		return nil, storageError(err)
	}
	if as.notifier != nil {
		as.notifier.SendResetPassword(user.Email, session.AccessToken)
	}
	return &ResetPasswordResult{Email: user.Email}, nil
}

// ChangePassword stores a new password for the token's bound user, re-salting
// the hash, and notifies the account owner.
func (as *AuthorizationService) ChangePassword(params ChangePasswordParams, accessToken string) (*ChangePasswordResult, *Error) {
	session, err := as.model.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, storageError(err)
	}
	if session == nil {
		return nil, newError(KindCredentials, msgInvalidToken)
	}
	if !users.ValidatePasswordValue(params.Password) {
		return nil, validationError(msgWrongParameters, "weak_password")
	}

	user, err := as.model.GetUser(session.UserID)
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, newError(KindCredentials, msgInvalidUser)
	}

	updated, err := as.model.SetUser(&users.User{ID: user.ID, Password: params.Password})
	if err != nil {
		return nil, storageError(err)
	}
	// A reset token is single use; a regular session survives the change.
	if session.Activation() {
		if err := as.model.DeleteSessionByID(session.ID); err != nil {
			return nil, storageError(err)
		}
	}
	if as.notifier != nil && user.Email != "" {
		as.notifier.SendChangedPassword(user.Email)
	}
	return &ChangePasswordResult{UserID: updated.ID}, nil
}
