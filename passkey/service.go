package passkey

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/cairnhq/cairn"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// A Service runs the two legs of registration and login ceremonies,
// marrying the ceremony library to the stores holding Users and Credentials.
//
// A Service holds no per-ceremony state. The webauthn.SessionData a begin leg
// returns must come back unaltered to the matching finish leg; Handler stashes
// it on the caller's HTTP session for exactly that.
type Service struct {
	lib   *webauthn.WebAuthn
	users UserStore
	creds CredentialStore
}

// NewService constructs a *Service from cfg and the stores passed in.
func NewService(cfg Config, users UserStore, creds CredentialStore) (*Service, error) {
	if users == nil || creds == nil {
		return nil, fmt.Errorf("%w: both a UserStore and a CredentialStore are required", cairn.ErrBadConfig)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	lib, err := webauthn.New(cfg.library())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", cairn.ErrBadConfig, err)
	}

	return &Service{lib: lib, users: users, creds: creds}, nil
}

// BeginRegistration opens a registration ceremony for username,
// creating the User when the username is brand new.
//
// The returned options carry an exclusion entry for every Credential already
// registered to the User, so an authenticator refuses to double-register itself.
// The returned session data must come back to FinishRegistration.
func (s *Service) BeginRegistration(username, displayName string) (*protocol.CredentialCreation, webauthn.SessionData, error) {
	if username == "" {
		return nil, webauthn.SessionData{}, fmt.Errorf("%w: username cannot be %q", ErrNotValid, username)
	}

	user, err := s.users.FindUser(username)
	if errors.Is(err, ErrNotFound) {
		user, err = s.users.CreateUser(username, displayName)
	}
	if err != nil {
		return nil, webauthn.SessionData{}, err
	}

	cu, err := s.ceremonyUser(user)
	if err != nil {
		return nil, webauthn.SessionData{}, err
	}

	var opts []webauthn.RegistrationOption
	if exclusions := cu.descriptors(); len(exclusions) > 0 {
		opts = append(opts, webauthn.WithExclusions(exclusions))
	}

	options, stash, err := s.lib.BeginRegistration(cu, opts...)
	if err != nil {
		return nil, webauthn.SessionData{}, fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return options, *stash, nil
}

// FinishRegistration closes the registration ceremony stash belongs to,
// proving resp against its challenge and persisting the new Credential.
func (s *Service) FinishRegistration(username string, stash webauthn.SessionData, resp *protocol.ParsedCredentialCreationData) (Credential, error) {
	user, err := s.users.FindUser(username)
	if err != nil {
		return Credential{}, err
	}

	cu, err := s.ceremonyUser(user)
	if err != nil {
		return Credential{}, err
	}

	verified, err := s.lib.CreateCredential(cu, stash, resp)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: attestation failed verification: %s", ErrNotValid, err)
	}

	cred := newCredential(user.ID, *verified)
	if err := s.creds.SaveCredential(cred); err != nil {
		return Credential{}, err
	}

	return cred, nil
}

// BeginLogin opens a login ceremony.
//
// With a username, the returned options allow exactly the Credentials registered
// to that User. With none, the ceremony is discoverable: the options allow no
// particular Credential and the authenticator volunteers whose key it holds.
// The returned session data must come back to FinishLogin.
func (s *Service) BeginLogin(username string) (*protocol.CredentialAssertion, webauthn.SessionData, error) {
	if username == "" {
		options, stash, err := s.lib.BeginDiscoverableLogin()
		if err != nil {
			return nil, webauthn.SessionData{}, fmt.Errorf("%w: %s", ErrUnexpected, err)
		}

		return options, *stash, nil
	}

	user, err := s.users.FindUser(username)
	if err != nil {
		return nil, webauthn.SessionData{}, err
	}

	cu, err := s.ceremonyUser(user)
	if err != nil {
		return nil, webauthn.SessionData{}, err
	}

	options, stash, err := s.lib.BeginLogin(cu)
	if err != nil {
		// covers a User with nothing registered; nothing can sign the challenge
		return nil, webauthn.SessionData{}, fmt.Errorf("%w: %s", ErrDenied, err)
	}

	return options, *stash, nil
}

// FinishLogin closes the login ceremony stash belongs to.
//
// On a verified assertion, FinishLogin records the authenticator's new signature
// count - flagging a suspected clone rather than refusing it - and returns the
// proven User. Every verification failure comes back as ErrDenied.
func (s *Service) FinishLogin(username string, stash webauthn.SessionData, resp *protocol.ParsedCredentialAssertionData) (cairn.User, error) {
	var user cairn.User
	var verified *webauthn.Credential
	var err error

	if username == "" {
		verified, err = s.lib.ValidateDiscoverableLogin(func(_, handle []byte) (webauthn.User, error) {
			u, err := s.users.FindUserByHandle(handle)
			if err != nil {
				return nil, err
			}

			cu, err := s.ceremonyUser(u)
			if err != nil {
				return nil, err
			}

			user = u
			return cu, nil
		}, stash, resp)
	} else {
		user, err = s.users.FindUser(username)
		if err != nil {
			return cairn.User{}, err
		}

		var cu ceremonyUser
		cu, err = s.ceremonyUser(user)
		if err != nil {
			return cairn.User{}, err
		}

		verified, err = s.lib.ValidateLogin(cu, stash, resp)
	}
	if err != nil {
		return cairn.User{}, fmt.Errorf("%w: assertion failed verification: %s", ErrDenied, err)
	}

	if !user.HasAccess() {
		return cairn.User{}, fmt.Errorf("%w: access is %s", ErrDenied, user.AccessState)
	}

	if err := s.recordUse(user.ID, verified); err != nil {
		return cairn.User{}, err
	}

	return user, nil
}

// recordUse rewrites the stored Credential's authenticator state
// with what the verified assertion presented.
func (s *Service) recordUse(userID uint, verified *webauthn.Credential) error {
	stored, err := s.creds.ListCredentials(userID)
	if err != nil {
		return err
	}

	for _, cred := range stored {
		if !bytes.Equal(cred.ID, verified.ID) {
			continue
		}

		cred.Authenticator.SignCount = verified.Authenticator.SignCount
		cred.Authenticator.CloneWarning = verified.Authenticator.CloneWarning
		cred.LastUsedAt = time.Now()

		return s.creds.SaveCredential(cred)
	}

	return nil
}

// ceremonyUser shapes user and its stored Credentials for the ceremony library.
func (s *Service) ceremonyUser(user cairn.User) (ceremonyUser, error) {
	creds, err := s.creds.ListCredentials(user.ID)
	if err != nil {
		return ceremonyUser{}, err
	}

	return ceremonyUser{user: user, creds: creds}, nil
}

var _ webauthn.User = ceremonyUser{}

// A ceremonyUser adapts a User and its Credentials to the ceremony library's
// idea of a user.
//
// The User's ExternalID acts as the handle authenticators store;
// it is stable, opaque and carries nothing personal, unlike the database ID.
type ceremonyUser struct {
	user  cairn.User
	creds []Credential
}

func (u ceremonyUser) WebAuthnID() []byte {
	id := u.user.ExternalID
	return id[:]
}

func (u ceremonyUser) WebAuthnName() string { return u.user.Email }

func (u ceremonyUser) WebAuthnDisplayName() string {
	if u.user.DisplayName == "" {
		return u.user.Email
	}

	return u.user.DisplayName
}

func (u ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	cs := make([]webauthn.Credential, len(u.creds))
	for i, c := range u.creds {
		cs[i] = c.library()
	}

	return cs
}

// descriptors shapes the user's Credentials for the exclusion list
// served with registration options.
func (u ceremonyUser) descriptors() []protocol.CredentialDescriptor {
	ds := make([]protocol.CredentialDescriptor, len(u.creds))
	for i, c := range u.creds {
		ds[i] = c.descriptor()
	}

	return ds
}
