package passkey

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/cairnhq/cairn"
	"github.com/google/uuid"
)

// The UserStore finds and creates the Users a ceremony runs on behalf of.
//
// A username is the unique, human-chosen name a registration began with;
// a handle is the opaque byte ID the authenticator stores alongside a
// discoverable credential, here a User's ExternalID.
type UserStore interface {
	// CreateUser makes a brand new User known under username,
	// failing with ErrExists when the username is already claimed.
	CreateUser(username, displayName string) (cairn.User, error)

	// FindUser retrieves the User known under username,
	// failing with ErrNotFound when there is none.
	FindUser(username string) (cairn.User, error)

	// FindUserByHandle retrieves the User whose handle the authenticator
	// presented, failing with ErrNotFound when there is none.
	FindUserByHandle(handle []byte) (cairn.User, error)
}

// The CredentialStore persists the Credentials registered to Users.
type CredentialStore interface {
	// ListCredentials retrieves every Credential registered to the User
	// identified by userID, oldest first. No registered Credentials is not
	// an error; ListCredentials returns an empty list.
	ListCredentials(userID uint) ([]Credential, error)

	// SaveCredential persists c, overwriting any stored Credential
	// sharing its ID.
	SaveCredential(c Credential) error
}

var (
	_ UserStore       = (*MemoryStore)(nil)
	_ CredentialStore = (*MemoryStore)(nil)
)

// A MemoryStore holds Users and Credentials in process memory,
// implementing both UserStore and CredentialStore.
//
// A MemoryStore backs tests and service stubs;
// nothing survives a restart, so reach for a durable implementation
// - confer postgres.PasskeyStore - anywhere that matters.
type MemoryStore struct {
	mu     sync.RWMutex
	lastID uint
	users  map[string]cairn.User
	creds  map[uint][]Credential
}

// NewMemoryStore constructs an empty *MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]cairn.User),
		creds: make(map[uint][]Credential),
	}
}

func (m *MemoryStore) CreateUser(username, displayName string) (cairn.User, error) {
	if username == "" {
		return cairn.User{}, fmt.Errorf("%w: username cannot be %q", ErrNotValid, username)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[username]; ok {
		return cairn.User{}, fmt.Errorf("%w: %q", ErrExists, username)
	}

	m.lastID++
	now := time.Now()
	u := cairn.User{
		Model:       cairn.Model{ID: m.lastID, CreatedAt: now, UpdatedAt: now},
		AccessState: cairn.AccessGranted,
		DisplayName: displayName,
		Email:       username,
		ExternalID:  uuid.New(),
	}
	m.users[username] = u

	return u, nil
}

func (m *MemoryStore) FindUser(username string) (cairn.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return cairn.User{}, fmt.Errorf("%w: %q", ErrNotFound, username)
	}

	return u, nil
}

func (m *MemoryStore) FindUserByHandle(handle []byte) (cairn.User, error) {
	id, err := uuid.FromBytes(handle)
	if err != nil {
		return cairn.User{}, fmt.Errorf("%w: handle: %s", ErrNotValid, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.ExternalID == id {
			return u, nil
		}
	}

	return cairn.User{}, fmt.Errorf("%w: no user for handle", ErrNotFound)
}

func (m *MemoryStore) ListCredentials(userID uint) ([]Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cs := make([]Credential, len(m.creds[userID]))
	copy(cs, m.creds[userID])

	return cs, nil
}

func (m *MemoryStore) SaveCredential(c Credential) error {
	if len(c.ID) == 0 || c.UserID == 0 {
		return fmt.Errorf("%w: credential requires an ID and a UserID", ErrNotValid)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, have := range m.creds[c.UserID] {
		if bytes.Equal(have.ID, c.ID) {
			m.creds[c.UserID][i] = c
			return nil
		}
	}

	m.creds[c.UserID] = append(m.creds[c.UserID], c)

	return nil
}
