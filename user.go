package cairn

import "github.com/google/uuid"

// A User is the core entity that interacts with a cairn application.
//
// An agent's HTTP requests are authenticated first by completing a passkey
// ceremony, matching a credential stored on a DB record for a User.
// Upon a match, a session is created and stored.
// Further requests are authenticated by referencing that session.
type User struct {
	Model
	AccessState AccessState `db:"access_state" json:"accessState"`
	DisplayName string      `db:"display_name" json:"displayName"`
	Email       string      `db:"email" json:"email"`
	ExternalID  uuid.UUID   `db:"external_id" json:"externalId"`
}

// GetID returns the User's primary ID.
//
// GetID implements logger.LogUser.
func (u User) GetID() uint { return u.ID }

// GetEmail returns the User's email address.
//
// GetEmail implements logger.LogUser.
func (u User) GetEmail() string { return u.Email }

// HasAccess asserts whether the User's properties give it general
// access to the cairn application.
func (u User) HasAccess() bool {
	return u.AccessState == AccessGranted
}

// HomePath returns the relative URL path designated
// as the default resource in the cairn application
// they can access.
func (u User) HomePath() string {
	if !u.HasAccess() {
		return "/login"
	}

	return "/"
}
