// Package dialect provides the backend-class abstraction for loom.
//
// A dialect tag identifies which relational engine family a query engine
// targets. The package defines the tags, the pure syntax-policy functions
// keyed by them (identifier quoting, parameter placeholders, type affinity,
// pagination and autoincrement forms), and the driver interfaces the engine
// executes through.
//
// # Supported Dialects
//
//   - SQLite: embedded file database
//   - Postgres: PostgreSQL
//   - MSSQL: SQL Server through its native driver
//   - ODBC: SQL Server through an ODBC driver
//   - MySQL: MySQL/MariaDB
//
// Unknown tags fall through to each policy function's default branch.
package dialect

import "context"

// Dialect tags. An unrecognized tag is never rejected; it takes the
// default branch of every policy function.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MSSQL    = "mssql"
	ODBC     = "odbc"
	MySQL    = "mysql"
)

// ExecQuerier wraps the Exec and Query operations every session must provide.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. If v is a
	// non-nil *sql.Result pointer, the execution result is assigned to it.
	Exec(ctx context.Context, query string, args []any, v any) error
	// Query executes a statement that returns rows. v must be a *Rows
	// value provided by the driver implementation.
	Query(ctx context.Context, query string, args []any, v any) error
}

// Driver is the database abstraction a query engine executes through.
// Implementations own the physical connection; the engine never pools or
// retries.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect tag of the driver.
	Dialect() string
}

// Tx is a transactional session.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
