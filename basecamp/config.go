package basecamp

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/cairnhq/cairn"
	"github.com/cairnhq/cairn/http/middleware"
	"github.com/cairnhq/cairn/postgres"
)

// A BasecampUser is the application's user model
// as the default middleware stack consumes it.
type BasecampUser interface {
	middleware.User
}

// Config carries the app-specific inputs New cannot conjure from env vars:
// the concrete user model, the migrations to run,
// and the filesystem holding the app's HTML templates.
type Config[User BasecampUser] struct {
	// NOTE(tmk): Basecamp can accept a type parameter also.
	// Config was chosen to minimize proliferating generic type parameters
	// in all Basecamp methods or references to Basecamp.
	// Config ought to be restricted to New.

	// FS holds the app's HTML templates.
	// When zero, templates read from the working directory.
	// The default templates shipped with this package
	// remain available underneath either.
	FS fs.FS

	// Migrations run in order on the database connection New establishes.
	//
	// WithDB skips both connecting and migrating.
	Migrations []postgres.Migration
}

// defaultUserStore constructs a function matching the signature of middleware.UserStorer.
// This function pulls the User from the db by ID,
// preloading all top-level associations.
func (Config[User]) defaultUserStore(db *postgres.DB) middleware.UserStorer {
	if db == nil {
		return nil
	}

	return func(id uint) (middleware.User, error) {
		var user User
		err := db.Preload(postgres.Associations).Where("id = ?", id).First(&user)
		if errors.Is(err, cairn.ErrNotFound) {
			return nil, fmt.Errorf("%w: User %d", cairn.ErrNotExist, id)
		}

		if err != nil {
			return nil, err
		}

		return user, nil
	}
}
