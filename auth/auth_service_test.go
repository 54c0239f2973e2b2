package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opla/zoauth/applications"
	"github.com/opla/zoauth/auth"
	"github.com/opla/zoauth/model"
	"github.com/opla/zoauth/notification/dispatchfake"
	"github.com/opla/zoauth/storage/memstore"
	"github.com/opla/zoauth/users"
)

const (
	testAppName      = "Zoapp"
	testAppEmail     = "toto@test.com"
	testUsername     = "toto"
	testUserEmail    = "toto@example.com"
	testUserPassword = "12345"
	testRouteName    = "/resources"
)

// testFixture holds the engine and its collaborators.
type testFixture struct {
	service  *auth.AuthorizationService
	accessor *model.Accessor
	notifier *dispatchfake.FakeDispatcher
	now      time.Time
}

// setupTestFixture builds an engine over a fresh in-memory store with a
// controllable clock.
func setupTestFixture(t *testing.T, options ...auth.AuthorizationServiceOption) *testFixture {
	t.Helper()

	fixture := &testFixture{
		notifier: dispatchfake.NewFakeDispatcher(),
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	fixture.accessor = model.New(memstore.New(), model.WithNowTime(func() time.Time { return fixture.now }))

	options = append([]auth.AuthorizationServiceOption{
		auth.WithNotifier(fixture.notifier),
		auth.WithNowTime(func() time.Time { return fixture.now }),
	}, options...)

	service, err := auth.NewAuthorizationService(fixture.accessor, options...)
	require.NoError(t, err)
	require.NoError(t, service.Start())
	t.Cleanup(func() { _ = service.Stop() })

	fixture.service = service
	return fixture
}

// registerTestApplication registers an application and returns its credentials.
func (f *testFixture) registerTestApplication(t *testing.T, policies *applications.Policies) *auth.RegisterApplicationResult {
	t.Helper()

	result, authErr := f.service.RegisterApplication(auth.RegisterApplicationParams{
		Name:     testAppName,
		Email:    testAppEmail,
		Policies: policies,
	})
	require.Nil(t, authErr)
	require.Len(t, result.ClientID, 64)
	require.Len(t, result.ClientSecret, 64)
	return result
}

// registerTestUser registers a complete user against the client.
func (f *testFixture) registerTestUser(t *testing.T, clientID string) *auth.RegisterUserResult {
	t.Helper()

	result, authErr := f.service.RegisterUser(auth.RegisterUserParams{
		ClientID: clientID,
		Username: testUsername,
		Email:    testUserEmail,
		Password: testUserPassword,
		Accept:   true,
	}, "")
	require.Nil(t, authErr)
	return result
}

// authorizeAndToken runs consent plus password grant for the test user.
func (f *testFixture) authorizeAndToken(t *testing.T, clientID, scope string) *auth.TokenResult {
	t.Helper()

	_, authErr := f.service.AuthorizeAccess(auth.AuthorizeParams{
		ClientID: clientID,
		Username: testUsername,
		Password: testUserPassword,
		Scope:    scope,
	})
	require.Nil(t, authErr)

	token, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
		ClientID:  clientID,
		GrantType: "password",
		Username:  testUsername,
		Password:  testUserPassword,
	})
	require.Nil(t, authErr)
	return token
}

func TestRegisterApplication(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("rejects short names", func(t *testing.T) {
		_, authErr := f.service.RegisterApplication(auth.RegisterApplicationParams{Name: "Zo", Email: testAppEmail})
		require.NotNil(t, authErr)
		require.Equal(t, "Wrong name sent", authErr.Message)
	})

	t.Run("rejects malformed emails", func(t *testing.T) {
		_, authErr := f.service.RegisterApplication(auth.RegisterApplicationParams{Name: testAppName, Email: "not-an-email"})
		require.NotNil(t, authErr)
		require.Equal(t, "Wrong email sent", authErr.Message)
	})

	t.Run("registers and rejects duplicate names", func(t *testing.T) {
		app := f.registerTestApplication(t, nil)
		require.NotEmpty(t, app.ClientID)

		_, authErr := f.service.RegisterApplication(auth.RegisterApplicationParams{Name: testAppName, Email: testAppEmail})
		require.NotNil(t, authErr)
		require.Equal(t, "Can't register this application name", authErr.Message)
	})

	t.Run("updates policies in place with the same id", func(t *testing.T) {
		existing, err := f.accessor.GetApplicationByName(testAppName)
		require.NoError(t, err)
		require.NotNil(t, existing)

		_, authErr := f.service.RegisterApplication(auth.RegisterApplicationParams{
			ID:       existing.ID,
			Name:     testAppName,
			Email:    testAppEmail,
			Policies: &applications.Policies{UserNeedEmail: false, ResetPassword: true},
		})
		require.Nil(t, authErr)

		updated, err := f.accessor.GetApplication(existing.ID, "")
		require.NoError(t, err)
		require.Equal(t, existing.Secret, updated.Secret)
		require.True(t, updated.EffectivePolicies().ResetPassword)
	})
}

func TestRegisterUser(t *testing.T) {
	f := setupTestFixture(t)
	app := f.registerTestApplication(t, nil)

	t.Run("unknown client", func(t *testing.T) {
		_, authErr := f.service.RegisterUser(auth.RegisterUserParams{ClientID: "missing"}, "")
		require.NotNil(t, authErr)
		require.Equal(t, "No client found", authErr.Message)
	})

	t.Run("requires terms acceptance", func(t *testing.T) {
		_, authErr := f.service.RegisterUser(auth.RegisterUserParams{
			ClientID: app.ClientID,
			Username: testUsername,
			Email:    testUserEmail,
			Password: testUserPassword,
		}, "")
		require.NotNil(t, authErr)
		require.Equal(t, "Wrong parameters sent", authErr.Message)
		require.Equal(t, "terms_not_accepted", authErr.Reason)
	})

	t.Run("registers a complete user", func(t *testing.T) {
		result := f.registerTestUser(t, app.ClientID)
		require.Len(t, result.ID, 32)
		require.Equal(t, testUsername, result.Username)
		require.Equal(t, testUserEmail, result.Email)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, authErr := f.service.RegisterUser(auth.RegisterUserParams{
			ClientID: app.ClientID,
			Username: testUsername,
			Email:    testUserEmail,
			Password: testUserPassword,
			Accept:   true,
		}, "")
		require.NotNil(t, authErr)
		require.Equal(t, "User exist: toto", authErr.Message)
	})

	t.Run("incomplete registration needs the anonymous policy", func(t *testing.T) {
		_, authErr := f.service.RegisterUser(auth.RegisterUserParams{
			ClientID: app.ClientID,
			Username: "nopassword",
		}, "")
		require.NotNil(t, authErr)
		require.Equal(t, "Wrong parameters sent", authErr.Message)
	})

	t.Run("rejects non admin tokens", func(t *testing.T) {
		_, authErr := f.service.RegisterUser(auth.RegisterUserParams{ClientID: app.ClientID}, "bogus-token")
		require.NotNil(t, authErr)
		require.Equal(t, "Unauthorized", authErr.Message)
	})
}

func TestAuthorizeAndToken(t *testing.T) {
	f := setupTestFixture(t)
	app := f.registerTestApplication(t, nil)
	user := f.registerTestUser(t, app.ClientID)

	t.Run("authorize with wrong credentials", func(t *testing.T) {
		_, authErr := f.service.AuthorizeAccess(auth.AuthorizeParams{
			ClientID: app.ClientID,
			Username: testUsername,
			Password: "wrong",
		})
		require.NotNil(t, authErr)
		require.Equal(t, "Wrong credentials", authErr.Message)
	})

	t.Run("authorize without user", func(t *testing.T) {
		_, authErr := f.service.AuthorizeAccess(auth.AuthorizeParams{ClientID: app.ClientID})
		require.NotNil(t, authErr)
		require.Equal(t, "Not valid", authErr.Message)
	})

	t.Run("authorize with unknown user id", func(t *testing.T) {
		_, authErr := f.service.AuthorizeAccess(auth.AuthorizeParams{ClientID: app.ClientID, UserID: "missing"})
		require.NotNil(t, authErr)
		require.Equal(t, "No valid user_id", authErr.Message)
	})

	t.Run("token before consent", func(t *testing.T) {
		_, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:  app.ClientID,
			GrantType: "password",
			Username:  testUsername,
			Password:  testUserPassword,
		})
		require.NotNil(t, authErr)
		require.Equal(t, "Not authentified", authErr.Message)
	})

	t.Run("full password grant round trip", func(t *testing.T) {
		result, authErr := f.service.AuthorizeAccess(auth.AuthorizeParams{
			ClientID: app.ClientID,
			Username: testUsername,
			Password: testUserPassword,
		})
		require.Nil(t, authErr)
		require.Equal(t, "localhost", result.RedirectURI)

		token, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:  app.ClientID,
			GrantType: "password",
			Username:  testUsername,
			Password:  testUserPassword,
		})
		require.Nil(t, authErr)
		require.Len(t, token.AccessToken, 48)
		require.Len(t, token.RefreshToken, 32)
		require.Equal(t, "default", token.Scope)
		require.Equal(t, model.DefaultTokenExpiration, token.ExpiresIn)

		session, err := f.accessor.ValidateAccessToken(token.AccessToken)
		require.NoError(t, err)
		require.NotNil(t, session)
		require.Equal(t, user.ID, session.UserID)
	})

	t.Run("renews the existing session in place", func(t *testing.T) {
		first, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:  app.ClientID,
			GrantType: "password",
			Username:  testUsername,
			Password:  testUserPassword,
		})
		require.Nil(t, authErr)

		second, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:  app.ClientID,
			GrantType: "password",
			Username:  testUsername,
			Password:  testUserPassword,
		})
		require.Nil(t, authErr)
		require.Equal(t, first.AccessToken, second.AccessToken)
	})

	t.Run("wrong password on token", func(t *testing.T) {
		_, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:  app.ClientID,
			GrantType: "password",
			Username:  testUsername,
			Password:  "wrong",
		})
		require.NotNil(t, authErr)
		require.Equal(t, "Can't authenticate", authErr.Message)
	})

	t.Run("unknown grant type", func(t *testing.T) {
		_, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:  app.ClientID,
			GrantType: "bogus",
		})
		require.NotNil(t, authErr)
		require.Equal(t, "Unknown grant type: bogus", authErr.Message)
	})
}

func TestRefreshTokenGrant(t *testing.T) {
	f := setupTestFixture(t)
	app := f.registerTestApplication(t, nil)
	f.registerTestUser(t, app.ClientID)
	token := f.authorizeAndToken(t, app.ClientID, "")

	t.Run("rotates the token pair and preserves scope", func(t *testing.T) {
		refreshed, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:     app.ClientID,
			GrantType:    "refresh_token",
			RefreshToken: token.RefreshToken,
		})
		require.Nil(t, authErr)
		require.NotEqual(t, token.AccessToken, refreshed.AccessToken)
		require.NotEqual(t, token.RefreshToken, refreshed.RefreshToken)
		require.Equal(t, token.Scope, refreshed.Scope)

		// The previous refresh token is gone after rotation.
		_, authErr = f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:     app.ClientID,
			GrantType:    "refresh_token",
			RefreshToken: token.RefreshToken,
		})
		require.NotNil(t, authErr)
		require.Equal(t, "Not valid refresh token", authErr.Message)
	})

	t.Run("unknown refresh token", func(t *testing.T) {
		_, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:     app.ClientID,
			GrantType:    "refresh_token",
			RefreshToken: "bogus",
		})
		require.NotNil(t, authErr)
		require.Equal(t, "Not valid refresh token", authErr.Message)
	})
}

func TestGrantAccess(t *testing.T) {
	f := setupTestFixture(t)
	app := f.registerTestApplication(t, nil)
	f.registerTestUser(t, app.ClientID)
	token := f.authorizeAndToken(t, app.ClientID, "")

	f.service.AddRoute(testRouteName, []string{"default"}, []string{"GET"}, true)
	f.service.AddRoute("/public", []string{"open"}, []string{"GET"}, false)
	f.service.AddRoute("/apps-only", []string{"application"}, []string{"POST"}, true)
	f.service.AddRoute("/admin", []string{"admin"}, []string{"GET"}, true)

	t.Run("unknown route", func(t *testing.T) {
		_, authErr := f.service.GrantAccess("/missing", "GET", token.AccessToken, nil)
		require.NotNil(t, authErr)
		require.Equal(t, "No permission route", authErr.Message)
	})

	t.Run("wrong method on known route", func(t *testing.T) {
		_, authErr := f.service.GrantAccess(testRouteName, "DELETE", token.AccessToken, nil)
		require.NotNil(t, authErr)
		require.Equal(t, "No permission route", authErr.Message)
	})

	t.Run("valid token on scoped route", func(t *testing.T) {
		grant, authErr := f.service.GrantAccess(testRouteName, "GET", token.AccessToken, nil)
		require.Nil(t, authErr)
		require.Equal(t, token.AccessToken, grant.AccessToken)
		require.Equal(t, app.ClientID, grant.ClientID)
		require.NotEmpty(t, grant.UserID)
	})

	t.Run("valid token with wrong scope", func(t *testing.T) {
		_, authErr := f.service.GrantAccess("/admin", "GET", token.AccessToken, nil)
		require.NotNil(t, authErr)
		require.Equal(t, "Not allowed", authErr.Message)
	})

	t.Run("invalid token never falls through to open", func(t *testing.T) {
		_, authErr := f.service.GrantAccess("/public", "GET", "bogus-token", nil)
		require.NotNil(t, authErr)
		require.Equal(t, "Not valid access token", authErr.Message)
	})

	t.Run("open route without token", func(t *testing.T) {
		grant, authErr := f.service.GrantAccess("/public", "GET", "", nil)
		require.Nil(t, authErr)
		require.Equal(t, "open", grant.Access)
	})

	t.Run("application credentials on application route", func(t *testing.T) {
		secret, err := f.accessor.GetApplication(app.ClientID, "")
		require.NoError(t, err)

		grant, authErr := f.service.GrantAccess("/apps-only", "POST", "", &auth.AppCredentials{
			ID:     app.ClientID,
			Secret: secret.Secret,
		})
		require.Nil(t, authErr)
		require.Equal(t, "application", grant.Scope)
		require.Equal(t, app.ClientID, grant.ClientID)
	})

	t.Run("wrong application secret", func(t *testing.T) {
		_, authErr := f.service.GrantAccess("/apps-only", "POST", "", &auth.AppCredentials{
			ID:     app.ClientID,
			Secret: "wrong",
		})
		require.NotNil(t, authErr)
		require.Equal(t, "No permission route", authErr.Message)
	})

	t.Run("expired token is rejected and deleted", func(t *testing.T) {
		f.now = f.now.Add(2 * time.Hour)
		_, authErr := f.service.GrantAccess(testRouteName, "GET", token.AccessToken, nil)
		require.NotNil(t, authErr)
		require.Equal(t, "Not valid access token", authErr.Message)

		session, err := f.accessor.ValidateAccessToken(token.AccessToken)
		require.NoError(t, err)
		require.Nil(t, session)
	})
}

func TestAnonymousAccess(t *testing.T) {
	f := setupTestFixture(t)
	app := f.registerTestApplication(t, &applications.Policies{
		AuthorizeAnonymous: true,
		AnonymousSecret:    "koko",
	})

	t.Run("client without the policy", func(t *testing.T) {
		other, authErr := f.service.RegisterApplication(auth.RegisterApplicationParams{
			Name:  "NoAnon",
			Email: testAppEmail,
		})
		require.Nil(t, authErr)

		_, anonErr := f.service.AnonymousAccess(auth.AnonymousParams{ClientID: other.ClientID, AnonymousSecret: "koko"})
		require.NotNil(t, anonErr)
		require.Equal(t, "No client found", anonErr.Message)
	})

	t.Run("wrong anonymous secret", func(t *testing.T) {
		_, authErr := f.service.AnonymousAccess(auth.AnonymousParams{ClientID: app.ClientID, AnonymousSecret: "wrong"})
		require.NotNil(t, authErr)
		require.Equal(t, "Wrong parameters sent", authErr.Message)
	})

	t.Run("composite flow issues a token", func(t *testing.T) {
		result, authErr := f.service.AnonymousAccess(auth.AnonymousParams{ClientID: app.ClientID, AnonymousSecret: "koko"})
		require.Nil(t, authErr)
		require.Len(t, result.AccessToken, 48)
		require.Len(t, result.UserID, 32)
		require.Regexp(t, "^anonymous-[0-9a-f]{6}$", result.Username)
		require.Equal(t, "anonymous", result.Scope)

		user, err := f.accessor.GetUser(result.UserID)
		require.NoError(t, err)
		require.True(t, user.Anonymous)
		require.True(t, user.Enabled())
	})
}

func TestAccountValidation(t *testing.T) {
	f := setupTestFixture(t)
	app := f.registerTestApplication(t, &applications.Policies{
		UserNeedEmail: true,
		Validation:    applications.ValidationAdmin,
	})
	user := f.registerTestUser(t, app.ClientID)

	adminToken := f.adminToken(t, app.ClientID)

	t.Run("pending account cannot authorize or get a token", func(t *testing.T) {
		_, authErr := f.service.AuthorizeAccess(auth.AuthorizeParams{
			ClientID: app.ClientID,
			Username: testUsername,
			Password: testUserPassword,
		})
		require.NotNil(t, authErr)
		require.Equal(t, "pending_admin_validation", authErr.Reason)

		_, authErr = f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:  app.ClientID,
			GrantType: "password",
			Username:  testUsername,
			Password:  testUserPassword,
		})
		require.NotNil(t, authErr)
		require.Equal(t, "pending_admin_validation", authErr.Reason)
	})

	t.Run("validation requires an admin token", func(t *testing.T) {
		_, authErr := f.service.ValidateUserFromAdmin(auth.ValidateUserParams{
			ClientID:     app.ClientID,
			UserID:       user.ID,
			AccountState: users.AccountStateEnabled,
		}, "bogus")
		require.NotNil(t, authErr)
		require.Equal(t, "Unauthorized", authErr.Message)
	})

	t.Run("rejects unexpected target states", func(t *testing.T) {
		_, authErr := f.service.ValidateUserFromAdmin(auth.ValidateUserParams{
			ClientID:     app.ClientID,
			UserID:       user.ID,
			AccountState: users.AccountStatePending,
		}, adminToken)
		require.NotNil(t, authErr)
		require.Equal(t, "Wrong parameters sent", authErr.Message)
	})

	t.Run("admin enables the account", func(t *testing.T) {
		result, authErr := f.service.ValidateUserFromAdmin(auth.ValidateUserParams{
			ClientID:     app.ClientID,
			UserID:       user.ID,
			AccountState: users.AccountStateEnabled,
		}, adminToken)
		require.Nil(t, authErr)
		require.Equal(t, users.AccountStateEnabled, result.AccountState)

		authentication, err := f.accessor.GetAuthentication(app.ClientID, user.ID)
		require.NoError(t, err)
		require.NotNil(t, authentication)
		require.Equal(t, "owner", authentication.Scope)

		message := f.notifier.Last("account_enable")
		require.NotNil(t, message)
		require.Equal(t, testUserEmail, message.Email)
	})

	t.Run("admin disables the account and revokes consent", func(t *testing.T) {
		result, authErr := f.service.ValidateUserFromAdmin(auth.ValidateUserParams{
			ClientID:     app.ClientID,
			UserID:       user.ID,
			AccountState: users.AccountStateDisabled,
		}, adminToken)
		require.Nil(t, authErr)
		require.Equal(t, users.AccountStateDisabled, result.AccountState)

		authentication, err := f.accessor.GetAuthentication(app.ClientID, user.ID)
		require.NoError(t, err)
		require.Nil(t, authentication)

		_, authErr = f.service.AuthorizeAccess(auth.AuthorizeParams{
			ClientID: app.ClientID,
			Username: testUsername,
			Password: testUserPassword,
		})
		require.NotNil(t, authErr)
		require.Equal(t, "account_disabled", authErr.Reason)

		// Correct credentials never override the state gate on the grant.
		_, authErr = f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:  app.ClientID,
			GrantType: "password",
			Username:  testUsername,
			Password:  testUserPassword,
		})
		require.NotNil(t, authErr)
		require.Equal(t, "account_disabled", authErr.Reason)
	})
}

// adminToken enables an admin user out of band and issues an admin-scoped
// token for it.
func (f *testFixture) adminToken(t *testing.T, clientID string) string {
	t.Helper()

	admin, err := f.accessor.SetUser(&users.User{
		Username:     "admin",
		Email:        "admin@test.com",
		Password:     "adminpass",
		AccountState: users.AccountStateEnabled,
	})
	require.NoError(t, err)

	session, err := f.accessor.GetAccessToken(clientID, admin.ID, "admin", 0)
	require.NoError(t, err)
	return session.AccessToken
}

func TestMailValidation(t *testing.T) {
	f := setupTestFixture(t)
	app := f.registerTestApplication(t, &applications.Policies{
		UserNeedEmail: true,
		Validation:    applications.ValidationMail,
	})
	user := f.registerTestUser(t, app.ClientID)

	message := f.notifier.Last("user_created")
	require.NotNil(t, message)
	require.Equal(t, applications.ValidationMail, message.Policy)
	require.Len(t, message.ActivationToken, 48)

	t.Run("token bound to another user", func(t *testing.T) {
		_, authErr := f.service.ValidateUserFromMail(auth.MailValidationParams{
			ClientID: app.ClientID,
			UserID:   "someone-else",
		}, message.ActivationToken)
		require.NotNil(t, authErr)
		require.Equal(t, "Unauthorized", authErr.Message)
	})

	t.Run("enables the account and consumes the token", func(t *testing.T) {
		result, authErr := f.service.ValidateUserFromMail(auth.MailValidationParams{
			ClientID: app.ClientID,
			UserID:   user.ID,
		}, message.ActivationToken)
		require.Nil(t, authErr)
		require.Equal(t, users.AccountStateEnabled, result.AccountState)

		stored, err := f.accessor.GetUser(user.ID)
		require.NoError(t, err)
		require.True(t, stored.ValidEmail)

		_, authErr = f.service.ValidateUserFromMail(auth.MailValidationParams{
			ClientID: app.ClientID,
			UserID:   user.ID,
		}, message.ActivationToken)
		require.NotNil(t, authErr)
		require.Equal(t, "Not valid access token", authErr.Message)
	})
}

func TestPasswordFlows(t *testing.T) {
	f := setupTestFixture(t)
	app := f.registerTestApplication(t, &applications.Policies{
		UserNeedEmail: true,
		ResetPassword: true,
	})
	f.registerTestUser(t, app.ClientID)

	t.Run("reset request for an unknown email", func(t *testing.T) {
		_, authErr := f.service.ResetPasswordRequest(auth.ResetPasswordParams{
			ClientID: app.ClientID,
			Email:    "nobody@example.com",
		})
		require.NotNil(t, authErr)
		require.Equal(t, "Not valid user account", authErr.Message)
	})

	t.Run("reset then change password", func(t *testing.T) {
		result, authErr := f.service.ResetPasswordRequest(auth.ResetPasswordParams{
			ClientID: app.ClientID,
			Email:    testUserEmail,
		})
		require.Nil(t, authErr)
		require.Equal(t, testUserEmail, result.Email)

		message := f.notifier.Last("reset_password")
		require.NotNil(t, message)
		require.Len(t, message.ActivationToken, 48)

		_, authErr = f.service.ChangePassword(auth.ChangePasswordParams{Password: "abc"}, message.ActivationToken)
		require.NotNil(t, authErr)
		require.Equal(t, "weak_password", authErr.Reason)

		changed, authErr := f.service.ChangePassword(auth.ChangePasswordParams{Password: "newpass"}, message.ActivationToken)
		require.Nil(t, authErr)
		require.NotEmpty(t, changed.UserID)

		user, err := f.accessor.ValidateCredentials(testUsername, "newpass")
		require.NoError(t, err)
		require.NotNil(t, user)

		old, err := f.accessor.ValidateCredentials(testUsername, testUserPassword)
		require.NoError(t, err)
		require.Nil(t, old)
	})

	t.Run("reset token is single use", func(t *testing.T) {
		_, authErr := f.service.ResetPasswordRequest(auth.ResetPasswordParams{
			ClientID: app.ClientID,
			Email:    testUserEmail,
		})
		require.Nil(t, authErr)
		message := f.notifier.Last("reset_password")

		_, authErr = f.service.ChangePassword(auth.ChangePasswordParams{Password: "firstpass"}, message.ActivationToken)
		require.Nil(t, authErr)

		_, authErr = f.service.ChangePassword(auth.ChangePasswordParams{Password: "secondpass"}, message.ActivationToken)
		require.NotNil(t, authErr)
		require.Equal(t, "Not valid access token", authErr.Message)
	})

	t.Run("reset requires the policy", func(t *testing.T) {
		other, authErr := f.service.RegisterApplication(auth.RegisterApplicationParams{
			Name:  "NoReset",
			Email: testAppEmail,
		})
		require.Nil(t, authErr)

		_, resetErr := f.service.ResetPasswordRequest(auth.ResetPasswordParams{
			ClientID: other.ClientID,
			Email:    testUserEmail,
		})
		require.NotNil(t, resetErr)
		require.Equal(t, "reset_password_disabled", resetErr.Reason)
	})
}

func TestResetTokenLeavesLiveSessionIntact(t *testing.T) {
	f := setupTestFixture(t)
	app := f.registerTestApplication(t, &applications.Policies{
		UserNeedEmail: true,
		ResetPassword: true,
	})
	f.registerTestUser(t, app.ClientID)
	token := f.authorizeAndToken(t, app.ClientID, "")

	_, authErr := f.service.ResetPasswordRequest(auth.ResetPasswordParams{
		ClientID: app.ClientID,
		Email:    testUserEmail,
	})
	require.Nil(t, authErr)

	message := f.notifier.Last("reset_password")
	require.NotNil(t, message)

	t.Run("issues a distinct 24h owner token", func(t *testing.T) {
		require.NotEqual(t, token.AccessToken, message.ActivationToken)

		activation, err := f.accessor.ValidateAccessToken(message.ActivationToken)
		require.NoError(t, err)
		require.NotNil(t, activation)
		require.Equal(t, "owner", activation.Scope)
		require.Equal(t, int64(24*3600), activation.ExpiresIn)
		require.Empty(t, activation.RefreshToken)
	})

	t.Run("the live session keeps its token, scope and lifetime", func(t *testing.T) {
		session, err := f.accessor.ValidateAccessToken(token.AccessToken)
		require.NoError(t, err)
		require.NotNil(t, session)
		require.Equal(t, "default", session.Scope)
		require.Equal(t, model.DefaultTokenExpiration, session.ExpiresIn)
	})

	t.Run("a later password grant renews the login session, not the reset token", func(t *testing.T) {
		renewed, authErr := f.service.RequestAccessToken(auth.AccessTokenParams{
			ClientID:  app.ClientID,
			GrantType: "password",
			Username:  testUsername,
			Password:  testUserPassword,
		})
		require.Nil(t, authErr)
		require.Equal(t, token.AccessToken, renewed.AccessToken)
		require.NotEqual(t, message.ActivationToken, renewed.AccessToken)
		require.Equal(t, model.DefaultTokenExpiration, renewed.ExpiresIn)
	})

	t.Run("changing the password over a regular session keeps it alive", func(t *testing.T) {
		_, authErr := f.service.ChangePassword(auth.ChangePasswordParams{Password: "rotated1"}, token.AccessToken)
		require.Nil(t, authErr)

		session, err := f.accessor.ValidateAccessToken(token.AccessToken)
		require.NoError(t, err)
		require.NotNil(t, session)
	})
}
