package postgres

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cairnhq/cairn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// PG Docs: https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-PARAMKEYWORDS
const cxnStr = "host=%s port=%s dbname=%s user=%s password=%s sslmode=%s"

// CxnConfig holds connection information used to connect to a PostgreSQL database.
//
// When URL is set, it takes precedence over the individual parts.
type CxnConfig struct {
	Env         cairn.Environment
	Host        string
	IsTestDB    bool
	MaxIdleCxns int
	Name        string
	Password    string
	Port        string
	SSLMode     string
	URL         string
	User        string
}

// Connect opens a database connection through GORM according to config.
//
// When config.IsTestDB is set, Connect recreates the public schema,
// leaving an empty database for the test run to populate.
//
// Connect does not run migrations; confer MigrateUp.
func Connect(config *CxnConfig) (*DB, error) {
	// https://gorm.io/docs/logger.html
	c := logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	}

	if config.Env.IsDevelopment() {
		c.Colorful = true
	}

	db, err := gorm.Open(postgres.Open(buildCxnStr(config)), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), c),
		NamingStrategy: schema.NamingStrategy{
			NameReplacer: strings.NewReplacer("Table", ""),
		},
		NowFunc: func() time.Time {
			// NOTE(tmk): PostgreSQL stores microseconds,
			// so drop the precision a round trip loses anyway.
			return time.Now().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed opening connection: %s", cairn.ErrBadConfig, err)
	}

	if config.MaxIdleCxns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", cairn.ErrUnexpected, err)
		}

		sqlDB.SetMaxIdleConns(config.MaxIdleCxns)
	}

	if config.IsTestDB {
		err := db.Exec("DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;").Error
		if err != nil {
			return nil, fmt.Errorf("%w: failed resetting test schema: %s", cairn.ErrUnexpected, err)
		}
	}

	return NewDB(db), nil
}

func buildCxnStr(config *CxnConfig) string {
	if config.URL != "" {
		return config.URL
	}

	if config.SSLMode == "" {
		// PG Docs: https://www.postgresql.org/docs/current/libpq-ssl.html#LIBPQ-SSL-SSLMODE-STATEMENTS
		config.SSLMode = "prefer"
	}

	return fmt.Sprintf(
		cxnStr,
		config.Host,
		config.Port,
		config.Name,
		config.User,
		config.Password,
		config.SSLMode,
	)
}

// WipeDB truncates every table in the named schema, views excepted.
//
// WipeDB is intended for resetting state between tests
// and ought not be reached for outside that context.
func WipeDB(db *gorm.DB, schema string) error {
	var tables []string
	err := db.
		Table("information_schema.tables").
		Select("table_name").
		Where("table_schema = ?", schema).
		Not("table_type = ?", "VIEW").
		Pluck("table_name", &tables).
		Error
	if err != nil {
		return err
	}

	if len(tables) == 0 {
		return nil
	}

	return db.Exec(fmt.Sprintf("TRUNCATE %s CASCADE;", strings.Join(tables, ", "))).Error
}
