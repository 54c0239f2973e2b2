package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteApplications   = "/applications"
	RouteClient         = "/client"
	RouteUsers          = "/users"
	RouteAdminUsers     = "/admin/users"
	RouteMe             = "/me"
	RouteAuthorize      = "/authorize"
	RouteToken          = "/token"
	RouteAnonymous      = "/anonymous"
	RouteValidate       = "/users/validate"
	RouteResetPassword  = "/users/password"
	RouteChangePassword = "/me/password"
)

func (s *Server) initRoutes() {
	mw := s.APIMiddleware()

	s.RegisterRouteHandler("POST "+RouteApplications, ChainMiddleware(s.RegisterApplicationHandler(), mw...))
	s.RegisterRouteHandler("GET "+RouteClient, ChainMiddleware(s.ClientHandler(), mw...))
	s.RegisterRouteHandler("POST "+RouteUsers, ChainMiddleware(s.RegisterUserHandler(), mw...))
	s.RegisterRouteHandler("GET "+RouteAdminUsers, ChainMiddleware(s.ListUsersHandler(), mw...))
	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), mw...))
	s.RegisterRouteHandler("POST "+RouteAuthorize, ChainMiddleware(s.AuthorizeHandler(), mw...))
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.TokenHandler(), mw...))
	s.RegisterRouteHandler("POST "+RouteAnonymous, ChainMiddleware(s.AnonymousHandler(), mw...))
	s.RegisterRouteHandler("GET "+RouteValidate, ChainMiddleware(s.MailValidationHandler(), mw...))
	s.RegisterRouteHandler("POST "+RouteValidate, ChainMiddleware(s.AdminValidationHandler(), mw...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordHandler(), mw...))
	s.RegisterRouteHandler("PUT "+RouteChangePassword, ChainMiddleware(s.ChangePasswordHandler(), mw...))

	// Permission declarations consumed by GrantAccess. Routes are keyed by
	// name, so scopes and methods declared for the same path union together;
	// /users/validate accepts both its scopes on both methods, and the two
	// handlers enforce their own token checks on top. Paths mixing open and
	// scoped methods get distinct names instead, since the open scope would
	// swallow the whole route. Routes live in memory and are redeclared on
	// every start.
	s.auth.AddRoute(RouteApplications, []string{"open"}, []string{"POST"}, false)
	s.auth.AddRoute(RouteClient, []string{"application"}, []string{"GET"}, true)
	s.auth.AddRoute(RouteUsers, []string{"open"}, []string{"POST"}, false)
	s.auth.AddRoute(RouteAdminUsers, []string{"admin"}, []string{"GET"}, true)
	s.auth.AddRoute(RouteMe, []string{"*"}, []string{"GET"}, true)
	s.auth.AddRoute(RouteAuthorize, []string{"open"}, []string{"POST"}, false)
	s.auth.AddRoute(RouteToken, []string{"open"}, []string{"POST"}, false)
	s.auth.AddRoute(RouteAnonymous, []string{"open"}, []string{"POST"}, false)
	s.auth.AddRoute(RouteValidate, []string{"owner"}, []string{"GET"}, true)
	s.auth.AddRoute(RouteValidate, []string{"admin"}, []string{"POST"}, true)
	s.auth.AddRoute(RouteResetPassword, []string{"open"}, []string{"POST"}, false)
	s.auth.AddRoute(RouteChangePassword, []string{"owner", "admin", "default"}, []string{"PUT"}, true)
}
