package authentications

import "fmt"

// Authentication is a stored consent binding a user to a client application
// with a granted scope. There is at most one per (client, user) pair.
type Authentication struct {
	ID          string `json:"id"`
	ClientID    string `json:"client_id"`
	UserID      string `json:"user_id"`
	Scope       string `json:"scope,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// Key builds the composite id binding a client to a user.
func Key(clientID, userID string) string {
	return fmt.Sprintf("%s-%s", clientID, userID)
}
