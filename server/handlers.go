package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/opla/zoauth/auth"
	"github.com/opla/zoauth/internal/utils"
)

const contentTypeJSON = "application/json; charset=utf-8"

// bearerToken extracts the access token from the Authorization header or the
// access_token query parameter.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}

// appCredentials extracts client credentials from basic auth.
func appCredentials(r *http.Request) *auth.AppCredentials {
	id, secret, ok := r.BasicAuth()
	if !ok {
		return nil
	}
	return &auth.AppCredentials{ID: id, Secret: secret}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
}

func writeError(w http.ResponseWriter, authErr *auth.Error) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(authErr.HTTPStatus())
	payload := map[string]any{"error": authErr.Message}
	if authErr.Reason != "" {
		payload["type"] = authErr.Reason
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"result": payload})
}

func (s *Server) RegisterApplicationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.RegisterApplicationParams
		if !decodeBody(w, r, &params) {
			return
		}
		result, authErr := s.auth.RegisterApplication(params)
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
}

// ClientHandler returns the sanitized record of the application holding the
// basic-auth credentials.
func (s *Server) ClientHandler() http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		grant := GrantFromContext(r.Context())
		result, authErr := s.auth.GetApplication(grant.ClientID)
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
	return s.GrantMiddleware(RouteClient, handler)
}

func (s *Server) RegisterUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.RegisterUserParams
		if !decodeBody(w, r, &params) {
			return
		}
		result, authErr := s.auth.RegisterUser(params, bearerToken(r))
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
}

func (s *Server) ListUsersHandler() http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		grant := GrantFromContext(r.Context())
		var anonymous *bool
		switch r.URL.Query().Get("anonymous") {
		case "true":
			anonymous = utils.Ptr(true)
		case "false":
			anonymous = utils.Ptr(false)
		}
		list, err := s.auth.Model().RetrieveUsers(grant.ClientID, anonymous)
		if err != nil {
			writeError(w, auth.AsError(err))
			return
		}
		writeResult(w, list)
	}
	return s.GrantMiddleware(RouteAdminUsers, handler)
}

func (s *Server) MeHandler() http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		grant := GrantFromContext(r.Context())
		user, authErr := s.auth.GetUser(grant.UserID)
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, user)
	}
	return s.GrantMiddleware(RouteMe, handler)
}

func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.AuthorizeParams
		if !decodeBody(w, r, &params) {
			return
		}
		result, authErr := s.auth.AuthorizeAccess(params)
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
}

func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := tokenParams(w, r)
		if !ok {
			return
		}
		result, authErr := s.auth.RequestAccessToken(params)
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
}

// tokenParams accepts either a JSON body or a classic form-encoded token
// request.
func tokenParams(w http.ResponseWriter, r *http.Request) (auth.AccessTokenParams, bool) {
	var params auth.AccessTokenParams
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return params, false
		}
		params.ClientID = r.PostFormValue("client_id")
		params.GrantType = r.PostFormValue("grant_type")
		params.Username = r.PostFormValue("username")
		params.Password = r.PostFormValue("password")
		params.RefreshToken = r.PostFormValue("refresh_token")
		return params, true
	}
	return params, decodeBody(w, r, &params)
}

func (s *Server) AnonymousHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.AnonymousParams
		if !decodeBody(w, r, &params) {
			return
		}
		result, authErr := s.auth.AnonymousAccess(params)
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
}

func (s *Server) MailValidationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := auth.MailValidationParams{
			ClientID: r.URL.Query().Get("client_id"),
			UserID:   r.URL.Query().Get("user_id"),
		}
		result, authErr := s.auth.ValidateUserFromMail(params, bearerToken(r))
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
}

func (s *Server) AdminValidationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.ValidateUserParams
		if !decodeBody(w, r, &params) {
			return
		}
		result, authErr := s.auth.ValidateUserFromAdmin(params, bearerToken(r))
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.ResetPasswordParams
		if !decodeBody(w, r, &params) {
			return
		}
		result, authErr := s.auth.ResetPasswordRequest(params)
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	handler := func(w http.ResponseWriter, r *http.Request) {
		var params auth.ChangePasswordParams
		if !decodeBody(w, r, &params) {
			return
		}
		result, authErr := s.auth.ChangePassword(params, bearerToken(r))
		if authErr != nil {
			writeError(w, authErr)
			return
		}
		writeResult(w, result)
	}
	return s.GrantMiddleware(RouteChangePassword, handler)
}
