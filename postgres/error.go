package postgres

import (
	"errors"
	"regexp"
)

var (
	// These errors originate from the std lib database/sql package.
	//
	// Cf., https://cs.opensource.google/go/go/+/master:src/database/sql/convert.go
	errSQLScan          = regexp.MustCompile(`sql: expected \d+ destination arguments in Scan, not \d+`)
	errSQLUnaddressable = regexp.MustCompile(`sql: Scan error on column index \d+, name "\w+": destination not a pointer`)

	// errSQLSyntax is a very loose aggregation of error codes
	// originating from PostgreSQL itself
	// that are some sort of syntax issue in the statement or datatype mismatch.
	//
	// Cf., https://www.postgresql.org/docs/current/errcodes-appendix.html
	errSQLSyntax = regexp.MustCompile(`SQLSTATE (42601|22P02)`)

	errConstraintViolation = regexp.MustCompile(`SQLSTATE (23502)`)
	errUniqViolation       = regexp.MustCompile(`SQLSTATE (23505)`)
)

// violatesFK appears in PostgreSQL foreign key violations (SQLSTATE 23503);
// match on the message since the driver places the code after the constraint name.
const violatesFK = "violates foreign key constraint"

// errNilArg flags a nil passed as a query parameter.
// Callers can treat it as benign; GORM renders nil as NULL.
var errNilArg = errors.New("nil arg")
