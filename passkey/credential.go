package passkey

import (
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// A Credential is one authenticator-held key pair registered to a User,
// in the shape a CredentialStore persists.
//
// ID and PublicKey come from the authenticator and never change;
// the Authenticator block is rewritten after every verified login.
type Credential struct {
	ID              []byte          `json:"id"`
	UserID          uint            `json:"userId"`
	PublicKey       []byte          `json:"publicKey"`
	AttestationType string          `json:"attestationType"`
	Transports      []string        `json:"transports"`
	Flags           CredentialFlags `json:"flags"`
	Authenticator   Authenticator   `json:"authenticator"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastUsedAt      time.Time       `json:"lastUsedAt"`
}

// CredentialFlags records what the authenticator asserted about itself
// when the Credential was registered.
type CredentialFlags struct {
	UserPresent    bool `json:"userPresent"`
	UserVerified   bool `json:"userVerified"`
	BackupEligible bool `json:"backupEligible"`
	BackupState    bool `json:"backupState"`
}

// Authenticator tracks the state of the authenticator holding a Credential.
//
// SignCount increases with every assertion the authenticator signs;
// a verified login presenting a stale count trips CloneWarning,
// hinting the key pair exists on more than one device.
type Authenticator struct {
	AAGUID       []byte `json:"aaguid"`
	SignCount    uint32 `json:"signCount"`
	CloneWarning bool   `json:"cloneWarning"`
	Attachment   string `json:"attachment"`
}

// newCredential shapes what the ceremony library verified into a Credential
// registered to the User identified by userID.
func newCredential(userID uint, c webauthn.Credential) Credential {
	ts := make([]string, len(c.Transport))
	for i, t := range c.Transport {
		ts[i] = string(t)
	}

	now := time.Now()
	return Credential{
		ID:              c.ID,
		UserID:          userID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Transports:      ts,
		Flags: CredentialFlags{
			UserPresent:    c.Flags.UserPresent,
			UserVerified:   c.Flags.UserVerified,
			BackupEligible: c.Flags.BackupEligible,
			BackupState:    c.Flags.BackupState,
		},
		Authenticator: Authenticator{
			AAGUID:       c.Authenticator.AAGUID,
			SignCount:    c.Authenticator.SignCount,
			CloneWarning: c.Authenticator.CloneWarning,
			Attachment:   string(c.Authenticator.Attachment),
		},
		CreatedAt:  now,
		LastUsedAt: now,
	}
}

// library maps the Credential back into the ceremony library's shape
// so a login can verify an assertion against it.
func (c Credential) library() webauthn.Credential {
	ts := make([]protocol.AuthenticatorTransport, len(c.Transports))
	for i, t := range c.Transports {
		ts[i] = protocol.AuthenticatorTransport(t)
	}

	return webauthn.Credential{
		ID:              c.ID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Transport:       ts,
		Flags: webauthn.CredentialFlags{
			UserPresent:    c.Flags.UserPresent,
			UserVerified:   c.Flags.UserVerified,
			BackupEligible: c.Flags.BackupEligible,
			BackupState:    c.Flags.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:       c.Authenticator.AAGUID,
			SignCount:    c.Authenticator.SignCount,
			CloneWarning: c.Authenticator.CloneWarning,
			Attachment:   protocol.AuthenticatorAttachment(c.Authenticator.Attachment),
		},
	}
}

// descriptor shapes the Credential for an exclusion or allow list.
func (c Credential) descriptor() protocol.CredentialDescriptor {
	ts := make([]protocol.AuthenticatorTransport, len(c.Transports))
	for i, t := range c.Transports {
		ts[i] = protocol.AuthenticatorTransport(t)
	}

	return protocol.CredentialDescriptor{
		Type:         protocol.PublicKeyCredentialType,
		CredentialID: c.ID,
		Transport:    ts,
	}
}
