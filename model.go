package cairn

import (
	"time"

	"gorm.io/gorm"
)

type Modelable interface {
	Exists() bool
}

// A Model is the essential data points for primary ID-based models in a cairn application,
// indicating when a record was created, last updated and soft deleted.
//
// The DeletedAt timestamp leans on GORM's soft delete support,
// so standard queries exclude soft deleted records unless Unscoped.
type Model struct {
	ID        uint           `db:"id" json:"id"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `db:"deleted_at" json:"deletedAt"`
}

func (m Model) Exists() bool { return !m.CreatedAt.IsZero() }

// IsDeleted asserts whether the record is soft deleted.
func (m Model) IsDeleted() bool { return m.DeletedAt.Valid }

// AccessState is a string representation of the broadest, general access
// an entity such as a User has to a cairn application.
type AccessState string

const (
	AccessGranted     AccessState = "granted"
	AccessInvited     AccessState = "invited"
	AccessRevoked     AccessState = "revoked"
	AccessVerifyEmail AccessState = "verify-email"
)

// String stringifies the AccessState.
//
// String implements fmt.Stringer.
func (as AccessState) String() string { return string(as) }

// Valid asserts the AccessState is one of the enumerated values.
//
// Valid implements Enumerable.
func (as AccessState) Valid() error {
	switch as {
	case AccessGranted, AccessInvited, AccessRevoked, AccessVerifyEmail:
		return nil
	default:
		return ErrNotValid
	}
}
