package model

import (
	"github.com/opla/zoauth/authentications"
	"github.com/opla/zoauth/internal/utils"
)

// SetAuthentication upserts the consent binding a user to a client. The id is
// the composite <client_id>-<user_id>, so re-authorizing updates in place.
// A supplied scope replaces the stored one; an empty scope keeps it.
func (a *Accessor) SetAuthentication(authentication *authentications.Authentication) (*authentications.Authentication, error) {
	if authentication == nil || authentication.ClientID == "" || authentication.UserID == "" {
		return nil, nil
	}
	table := a.authentications()

	auth := *authentication
	auth.ID = authentications.Key(auth.ClientID, auth.UserID)

	stored, err := a.GetAuthentication(auth.ClientID, auth.UserID)
	if err != nil {
		return nil, err
	}
	if stored != nil && auth.Scope == "" {
		auth.Scope = stored.Scope
	}
	if auth.Scope == "" {
		auth.Scope = "default"
	}
	doc, err := marshal(&auth)
	if err != nil {
		return nil, err
	}
	if err := table.SetItem(auth.ID, doc); err != nil {
		return nil, err
	}
	if err := a.store.Flush(); err != nil {
		return nil, err
	}
	return &auth, nil
}

// GetAuthentication returns the authentication for a (client, user) pair, or
// nil when the pair was never authorized.
func (a *Accessor) GetAuthentication(clientID, userID string) (*authentications.Authentication, error) {
	if clientID == "" || userID == "" {
		return nil, nil
	}
	doc, err := a.authentications().GetItem(authentications.Key(clientID, userID))
	if err != nil || doc == nil {
		return nil, err
	}
	var auth authentications.Authentication
	if err := unmarshal(doc, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// DeleteAuthentication revokes the standing authorization of a user for a
// client, as happens when an admin disables the account.
func (a *Accessor) DeleteAuthentication(clientID, userID string) error {
	if clientID == "" || userID == "" {
		return nil
	}
	if err := a.authentications().DeleteItem(authentications.Key(clientID, userID)); err != nil {
		return err
	}
	return a.store.Flush()
}

// ValidateRedirectURI substitutes the default redirect target when none is
// supplied.
func (a *Accessor) ValidateRedirectURI(redirectURI string) string {
	if utils.StringIsEmpty(redirectURI) {
		return "localhost"
	}
	return redirectURI
}
