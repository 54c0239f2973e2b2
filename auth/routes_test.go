package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opla/zoauth/model"
	"github.com/opla/zoauth/storage/memstore"

	"github.com/opla/zoauth/auth"
)

func newRouteService(t *testing.T) *auth.AuthorizationService {
	t.Helper()

	service, err := auth.NewAuthorizationService(model.New(memstore.New()))
	require.NoError(t, err)
	return service
}

func TestAddRoute(t *testing.T) {
	service := newRouteService(t)

	t.Run("defaults scope and method", func(t *testing.T) {
		route := service.AddRoute("/things", nil, nil, true)
		require.Equal(t, []string{"default"}, route.Scopes())
		require.Equal(t, []string{"get"}, route.Methods())
		require.False(t, route.IsOpen())
	})

	t.Run("redeclaration unions instead of duplicating", func(t *testing.T) {
		service.AddRoute("/things", []string{"default", "admin"}, []string{"GET", "POST"}, true)
		service.AddRoute("/things", []string{"ADMIN"}, []string{"post"}, true)

		route := service.GetRoute("/things")
		require.Equal(t, []string{"default", "admin"}, route.Scopes())
		require.Equal(t, []string{"get", "post"}, route.Methods())
	})

	t.Run("open scope makes the route open", func(t *testing.T) {
		route := service.AddRoute("/public", []string{"open"}, []string{"GET"}, false)
		require.True(t, route.IsOpen())
		require.True(t, route.IsScopeValid("anything"))
		require.True(t, route.IsScopeValid(""))
	})
}

func TestRouteScopeValidation(t *testing.T) {
	service := newRouteService(t)
	route := service.AddRoute("/scoped", []string{"Owner", "admin"}, []string{"GET"}, true)

	require.True(t, route.IsScopeValid("owner"))
	require.True(t, route.IsScopeValid("OWNER"))
	require.False(t, route.IsScopeValid("default"))
	require.False(t, route.IsScopeValid(""))
}

func TestRouteWildcardScope(t *testing.T) {
	service := newRouteService(t)
	route := service.AddRoute("/me", []string{"*"}, []string{"GET"}, true)

	require.False(t, route.IsOpen())
	require.True(t, route.IsScopeValid("owner"))
	require.True(t, route.IsScopeValid("anonymous"))
	require.False(t, route.IsScopeValid(""))
}

func TestRouteMethodValidation(t *testing.T) {
	service := newRouteService(t)

	t.Run("exact match ignoring case", func(t *testing.T) {
		route := service.AddRoute("/methods", []string{"default"}, []string{"GET", "put"}, true)
		require.True(t, route.IsMethodValid("GET"))
		require.True(t, route.IsMethodValid("Put"))
		require.False(t, route.IsMethodValid("DELETE"))
		require.False(t, route.IsMethodValid(""))
	})

	t.Run("any matches everything", func(t *testing.T) {
		route := service.AddRoute("/wildcard", []string{"default"}, []string{"any"}, true)
		require.True(t, route.IsMethodValid("GET"))
		require.True(t, route.IsMethodValid("PATCH"))
	})
}

func TestFindRoute(t *testing.T) {
	service := newRouteService(t)
	service.AddRoute("/find", []string{"default"}, []string{"POST"}, true)

	require.NotNil(t, service.FindRoute("/find", "POST"))
	require.Nil(t, service.FindRoute("/find", "GET"))
	require.Nil(t, service.FindRoute("/missing", "POST"))
}
