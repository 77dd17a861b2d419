/*
Package postgres manages our database connection and wraps GORM in a smaller, safer query API.

Connect opens the connection. When the target is a test database, the public schema is dropped
and recreated so each run starts clean. MigrateUp applies one-time migrations, recording each
by key in a migrations table.

*DB exposes chainable query building methods closed out by finisher methods. Finishers translate
driver and GORM failures into the cairn sentinel errors - ErrNotFound, ErrNotValid, ErrExists and
friends - so handlers and procedures can branch on errors.Is instead of matching SQL states.
*/
package postgres
