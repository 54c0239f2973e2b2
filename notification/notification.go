// Package notification delivers account lifecycle emails. The engine treats a
// missing dispatcher as the feature being disabled, never as an error.
package notification

import "github.com/opla/zoauth/applications"

// Dispatcher is the outbound notification capability injected into the engine.
// Each method reports delivery success.
type Dispatcher interface {
	SendUserCreated(email, username string, policy applications.ValidationPolicy, activationToken string) bool
	SendResetPassword(email, resetToken string) bool
	SendChangedPassword(email string) bool
	SendAccountEnable(email, username string) bool
}
