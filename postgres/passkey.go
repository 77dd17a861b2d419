package postgres

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/passkey"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	_ passkey.UserStore       = (*PasskeyStore)(nil)
	_ passkey.CredentialStore = (*PasskeyStore)(nil)
)

// A PasskeyStore persists passkey users and their credentials,
// backing a passkey.Service with a database instead of process memory.
//
// PasskeyStore implements passkey.UserStore and passkey.CredentialStore.
// Run PasskeyMigration before first use.
type PasskeyStore struct {
	db *DB
}

// NewPasskeyStore constructs a *PasskeyStore around db.
func NewPasskeyStore(db *DB) (*PasskeyStore, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: a *DB is required", cairn.ErrBadConfig)
	}

	return &PasskeyStore{db: db}, nil
}

// PasskeyMigration creates the tables backing a PasskeyStore.
//
// Include it in the list handed to MigrateUp.
func PasskeyMigration() Migration {
	return Migration{
		Key: "2026-08-25-create-passkey-tables",
		Executor: func(db *gorm.DB) error {
			return db.AutoMigrate(new(passkeyUserRow), new(passkeyCredentialRow))
		},
	}
}

// CreateUser mints a user for username, granting it access
// so the credential it is about to register can log it in.
func (s *PasskeyStore) CreateUser(username, displayName string) (cairn.User, error) {
	if username == "" {
		return cairn.User{}, fmt.Errorf("%w: a username is required", passkey.ErrNotValid)
	}

	row := passkeyUserRow{
		AccessState: cairn.AccessGranted.String(),
		DisplayName: displayName,
		Email:       username,
		ExternalID:  uuid.New(),
	}
	if err := s.db.Create(&row); err != nil {
		if errors.Is(err, cairn.ErrExists) {
			return cairn.User{}, fmt.Errorf("%w: %q is already claimed", passkey.ErrExists, username)
		}

		return cairn.User{}, err
	}

	return row.user(), nil
}

// FindUser retrieves the user registered under username.
func (s *PasskeyStore) FindUser(username string) (cairn.User, error) {
	var row passkeyUserRow
	if err := s.db.Where("email = ?", username).First(&row); err != nil {
		if errors.Is(err, cairn.ErrNotFound) {
			return cairn.User{}, fmt.Errorf("%w: no user named %q", passkey.ErrNotFound, username)
		}

		return cairn.User{}, err
	}

	return row.user(), nil
}

// FindUserByHandle retrieves the user whose external ID
// matches the handle an authenticator presented.
func (s *PasskeyStore) FindUserByHandle(handle []byte) (cairn.User, error) {
	id, err := uuid.FromBytes(handle)
	if err != nil {
		return cairn.User{}, fmt.Errorf("%w: malformed user handle: %s", passkey.ErrNotValid, err)
	}

	var row passkeyUserRow
	if err := s.db.Where("external_id = ?", id).First(&row); err != nil {
		if errors.Is(err, cairn.ErrNotFound) {
			return cairn.User{}, fmt.Errorf("%w: no user for handle %s", passkey.ErrNotFound, id)
		}

		return cairn.User{}, err
	}

	return row.user(), nil
}

// ListCredentials retrieves the credentials registered to the user, oldest first.
//
// A user holding none lists an empty slice, not an error.
func (s *PasskeyStore) ListCredentials(userID uint) ([]passkey.Credential, error) {
	var rows []passkeyCredentialRow
	err := s.db.Where("user_id = ?", userID).Order("created_at, id").Find(&rows)
	if err != nil && !errors.Is(err, cairn.ErrNotFound) {
		return nil, err
	}

	creds := make([]passkey.Credential, 0, len(rows))
	for _, row := range rows {
		cred, err := row.credential()
		if err != nil {
			return nil, err
		}

		creds = append(creds, cred)
	}

	return creds, nil
}

// SaveCredential stores cred, replacing the record
// already held under its ID if there is one.
func (s *PasskeyStore) SaveCredential(cred passkey.Credential) error {
	if len(cred.ID) == 0 || cred.UserID == 0 {
		return fmt.Errorf("%w: a credential needs its ID and its owner", passkey.ErrNotValid)
	}

	row, err := newPasskeyCredentialRow(cred)
	if err != nil {
		return err
	}

	err = s.db.Model(new(passkeyCredentialRow)).Where("id = ?", row.ID).Update(Updates{
		"user_id":          row.UserID,
		"public_key":       row.PublicKey,
		"attestation_type": row.AttestationType,
		"transports":       row.Transports,
		"flags":            row.Flags,
		"authenticator":    row.Authenticator,
		"last_used_at":     row.LastUsedAt,
	})
	if errors.Is(err, cairn.ErrNotFound) {
		return s.db.Create(&row)
	}

	return err
}

// A passkeyUserRow is the database shape of a user minted through passkey
// registration, mirroring cairn.User.
type passkeyUserRow struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	AccessState string
	DisplayName string
	Email       string    `gorm:"uniqueIndex;not null"`
	ExternalID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
}

func (passkeyUserRow) TableName() string { return "passkey_users" }

func (row passkeyUserRow) user() cairn.User {
	return cairn.User{
		Model: cairn.Model{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			DeletedAt: row.DeletedAt,
		},
		AccessState: cairn.AccessState(row.AccessState),
		DisplayName: row.DisplayName,
		Email:       row.Email,
		ExternalID:  row.ExternalID,
	}
}

// A passkeyCredentialRow is the database shape of a passkey.Credential.
//
// The primary key is the credential ID as authenticators mint it,
// base64url without padding.
type passkeyCredentialRow struct {
	ID              string `gorm:"primaryKey"`
	UserID          uint   `gorm:"index;not null"`
	PublicKey       []byte
	AttestationType string
	Transports      datatypes.JSON
	Flags           datatypes.JSON
	Authenticator   datatypes.JSON
	CreatedAt       time.Time
	LastUsedAt      time.Time
}

func (passkeyCredentialRow) TableName() string { return "passkey_credentials" }

func newPasskeyCredentialRow(cred passkey.Credential) (passkeyCredentialRow, error) {
	transports, err := json.Marshal(cred.Transports)
	if err != nil {
		return passkeyCredentialRow{}, fmt.Errorf("%w: failed encoding transports: %s", cairn.ErrUnexpected, err)
	}

	flags, err := json.Marshal(cred.Flags)
	if err != nil {
		return passkeyCredentialRow{}, fmt.Errorf("%w: failed encoding flags: %s", cairn.ErrUnexpected, err)
	}

	authenticator, err := json.Marshal(cred.Authenticator)
	if err != nil {
		return passkeyCredentialRow{}, fmt.Errorf("%w: failed encoding authenticator: %s", cairn.ErrUnexpected, err)
	}

	return passkeyCredentialRow{
		ID:              base64.RawURLEncoding.EncodeToString(cred.ID),
		UserID:          cred.UserID,
		PublicKey:       cred.PublicKey,
		AttestationType: cred.AttestationType,
		Transports:      datatypes.JSON(transports),
		Flags:           datatypes.JSON(flags),
		Authenticator:   datatypes.JSON(authenticator),
		CreatedAt:       cred.CreatedAt,
		LastUsedAt:      cred.LastUsedAt,
	}, nil
}

func (row passkeyCredentialRow) credential() (passkey.Credential, error) {
	id, err := base64.RawURLEncoding.DecodeString(row.ID)
	if err != nil {
		return passkey.Credential{}, fmt.Errorf("%w: malformed credential ID %q: %s", cairn.ErrUnexpected, row.ID, err)
	}

	cred := passkey.Credential{
		ID:              id,
		UserID:          row.UserID,
		PublicKey:       row.PublicKey,
		AttestationType: row.AttestationType,
		CreatedAt:       row.CreatedAt,
		LastUsedAt:      row.LastUsedAt,
	}

	if len(row.Transports) > 0 {
		if err := json.Unmarshal(row.Transports, &cred.Transports); err != nil {
			return passkey.Credential{}, fmt.Errorf("%w: malformed transports: %s", cairn.ErrUnexpected, err)
		}
	}

	if len(row.Flags) > 0 {
		if err := json.Unmarshal(row.Flags, &cred.Flags); err != nil {
			return passkey.Credential{}, fmt.Errorf("%w: malformed flags: %s", cairn.ErrUnexpected, err)
		}
	}

	if len(row.Authenticator) > 0 {
		if err := json.Unmarshal(row.Authenticator, &cred.Authenticator); err != nil {
			return passkey.Credential{}, fmt.Errorf("%w: malformed authenticator: %s", cairn.ErrUnexpected, err)
		}
	}

	return cred, nil
}
