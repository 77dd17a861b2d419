package passkey

import (
	"fmt"
	"time"

	"github.com/cairnhq/cairn"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

const defaultTimeout = 60 * time.Second

// A Config provides the required values for constructing a Service.
//
// The relying party triple - ID, display name, at least one origin - is what the
// ceremony library binds every challenge to; there are no usable defaults for those.
// The remaining fields tune the options served to the browser and fall back to
// sensible defaults when left their zero-values.
type Config struct {
	// The relying party ID, almost always the effective domain, e.g. "example.com".
	RPID string

	// The human-facing name browsers show during a ceremony.
	RPDisplayName string

	// The web origins allowed to answer a challenge, e.g. "https://example.com".
	RPOrigins []string

	// How much attestation to request from the authenticator.
	// Defaults to none; verifying attestation chains is out of scope here.
	Attestation protocol.ConveyancePreference

	// Restrict ceremonies to platform or cross-platform authenticators.
	// Unset allows both.
	Attachment protocol.AuthenticatorAttachment

	// Whether credentials should be discoverable by the authenticator,
	// letting a later login run without a username. Defaults to preferred.
	ResidentKey protocol.ResidentKeyRequirement

	// Whether the authenticator must verify the human, e.g. via PIN or biometric.
	// Defaults to preferred.
	UserVerification protocol.UserVerificationRequirement

	// How long the browser has to complete either leg of a ceremony.
	// Defaults to a minute.
	Timeout time.Duration

	Debug bool
}

func validateConfig(c Config) error {
	if c.RPID == "" {
		return fmt.Errorf("%w: RPID cannot be %q", cairn.ErrBadConfig, c.RPID)
	}

	if c.RPDisplayName == "" {
		return fmt.Errorf("%w: RPDisplayName cannot be %q", cairn.ErrBadConfig, c.RPDisplayName)
	}

	if len(c.RPOrigins) == 0 {
		return fmt.Errorf("%w: at least one origin is required", cairn.ErrBadConfig)
	}

	return nil
}

// library maps the Config onto the ceremony library's own config,
// filling in defaults for whatever was left unset.
func (c Config) library() *webauthn.Config {
	if c.Attestation == "" {
		c.Attestation = protocol.PreferNoAttestation
	}

	if c.ResidentKey == "" {
		c.ResidentKey = protocol.ResidentKeyRequirementPreferred
	}

	if c.UserVerification == "" {
		c.UserVerification = protocol.VerificationPreferred
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	selection := protocol.AuthenticatorSelection{
		AuthenticatorAttachment: c.Attachment,
		ResidentKey:             c.ResidentKey,
		UserVerification:        c.UserVerification,
	}
	if c.ResidentKey == protocol.ResidentKeyRequirementRequired {
		selection.RequireResidentKey = protocol.ResidentKeyRequired()
	}

	timeout := webauthn.TimeoutConfig{
		Enforce:    true,
		Timeout:    c.Timeout,
		TimeoutUVD: c.Timeout,
	}

	return &webauthn.Config{
		RPID:                   c.RPID,
		RPDisplayName:          c.RPDisplayName,
		RPOrigins:              c.RPOrigins,
		AttestationPreference:  c.Attestation,
		AuthenticatorSelection: selection,
		Debug:                  c.Debug,
		Timeouts: webauthn.TimeoutsConfig{
			Login:        timeout,
			Registration: timeout,
		},
	}
}
