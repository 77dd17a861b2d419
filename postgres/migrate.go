package postgres

import (
	"fmt"
	"slices"
	"time"

	"github.com/cairnhq/cairn"
	"gorm.io/gorm"
)

// A Migration pairs a unique key with the function applying the migration to the database.
//
// Keys are recorded in the migrations table once run,
// so a Migration executes exactly once over the lifetime of a database.
// Prefix keys with a date for stable ordering: 2026-01-02-create-widgets.
type Migration struct {
	Executor func(*gorm.DB) error
	Key      string
}

func (m Migration) execute(db *gorm.DB) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := m.Executor(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return err
	}

	return nil
}

// MigrateUp runs, in order, all migrations not yet recorded in the migrations table,
// creating the schema and the migrations table itself when absent.
//
// Each Migration runs in its own transaction.
// The first failure halts the run;
// migrations recorded before it stay recorded.
func MigrateUp(db *gorm.DB, schema string, migrations []Migration) error {
	if err := ensureSchema(db, schema); err != nil {
		return err
	}

	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	toRun, err := migrationsToRun(db, migrations)
	if err != nil {
		return err
	}

	for _, m := range toRun {
		if err := m.execute(db); err != nil {
			return fmt.Errorf("%w: migration %q: %w", cairn.ErrUnexpected, m.Key, err)
		}

		if err := recordMigration(db, m.Key); err != nil {
			return err
		}
	}

	return nil
}

func ensureSchema(db *gorm.DB, schema string) error {
	err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error
	if err != nil {
		return fmt.Errorf("%w: failed creating schema %q: %s", cairn.ErrUnexpected, schema, err)
	}

	return nil
}

func ensureMigrationsTable(db *gorm.DB) error {
	err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			ran_at bigint,
			key text,
			CONSTRAINT migrations_key UNIQUE (key)
		)
	`).Error
	if err != nil {
		return fmt.Errorf("%w: failed creating migrations table: %s", cairn.ErrUnexpected, err)
	}

	return nil
}

func migrationsToRun(db *gorm.DB, all []Migration) ([]Migration, error) {
	var ran []string
	if err := db.Raw("SELECT key FROM migrations;").Scan(&ran).Error; err != nil {
		return nil, fmt.Errorf("%w: failed fetching ran migrations: %s", cairn.ErrUnexpected, err)
	}

	if len(ran) == 0 {
		return all, nil
	}

	var toRun []Migration
	for _, m := range all {
		if !slices.Contains(ran, m.Key) {
			toRun = append(toRun, m)
		}
	}

	return toRun, nil
}

func recordMigration(db *gorm.DB, key string) error {
	err := db.Exec(`INSERT INTO migrations (key, ran_at) VALUES (?, ?)`, key, time.Now().Unix()).Error
	if err != nil {
		return fmt.Errorf("%w: failed recording migration %q: %s", cairn.ErrUnexpected, key, err)
	}

	return nil
}
