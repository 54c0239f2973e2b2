package auth

import (
	"strings"

	"github.com/opla/zoauth/internal/utils"
)

// Route holds the permissions declared for one route: the scopes allowed to
// reach it and the methods it answers to. A route is open when it has no
// scopes or carries the "open" scope.
type Route struct {
	Name    string
	Auth    bool
	scopes  []string
	methods []string
	open    bool
}

func newRoute(name string, auth bool) *Route {
	return &Route{Name: name, Auth: auth, open: true}
}

func putStringValue(values []string, value string) []string {
	value = strings.ToLower(value)
	if utils.StringIsEmpty(value) {
		return values
	}
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}

// AddScopes unions scopes into the route and recomputes openness.
// Idempotent under repeated identical calls.
func (r *Route) AddScopes(scopes ...string) {
	for _, scope := range scopes {
		r.scopes = putStringValue(r.scopes, scope)
	}
	r.open = len(r.scopes) == 0
	for _, s := range r.scopes {
		if s == "open" {
			r.open = true
			break
		}
	}
}

// AddMethods unions methods into the route.
func (r *Route) AddMethods(methods ...string) {
	for _, method := range methods {
		r.methods = putStringValue(r.methods, method)
	}
}

// IsOpen reports whether the route requires no scope at all.
func (r *Route) IsOpen() bool {
	return r.open
}

// IsScopeValid reports whether a session scope may access the route: open
// routes accept anything, otherwise the scope set must contain "*" or the
// scope itself.
func (r *Route) IsScopeValid(scope string) bool {
	if r.open {
		return true
	}
	if utils.StringIsEmpty(scope) {
		return false
	}
	scope = strings.ToLower(scope)
	for _, s := range r.scopes {
		if s == "open" || s == "*" || s == scope {
			return true
		}
	}
	return false
}

// IsMethodValid reports whether the route answers to the method; "any"
// matches every method.
func (r *Route) IsMethodValid(method string) bool {
	if utils.StringIsEmpty(method) {
		return false
	}
	method = strings.ToLower(method)
	for _, m := range r.methods {
		if m == "any" || m == method {
			return true
		}
	}
	return false
}

// Scopes returns a copy of the scope set.
func (r *Route) Scopes() []string {
	return append([]string(nil), r.scopes...)
}

// Methods returns a copy of the method set.
func (r *Route) Methods() []string {
	return append([]string(nil), r.methods...)
}

// AddRoute finds-or-creates the route and unions the given scopes and
// methods into it. Routes live for the engine's lifetime and are redeclared
// by the consuming application at boot; they are never persisted.
func (as *AuthorizationService) AddRoute(name string, scopes []string, methods []string, auth bool) *Route {
	route, ok := as.routes[name]
	if !ok {
		route = newRoute(name, auth)
		as.routes[name] = route
	}
	if len(scopes) == 0 {
		scopes = []string{"default"}
	}
	if len(methods) == 0 {
		methods = []string{"GET"}
	}
	route.AddScopes(scopes...)
	route.AddMethods(methods...)
	return route
}

// GetRoute returns the route declared under name, or nil.
func (as *AuthorizationService) GetRoute(name string) *Route {
	return as.routes[name]
}

// FindRoute returns the route only when it exists and answers to the method.
func (as *AuthorizationService) FindRoute(name, method string) *Route {
	route := as.routes[name]
	if route == nil || !route.IsMethodValid(method) {
		return nil
	}
	return route
}
