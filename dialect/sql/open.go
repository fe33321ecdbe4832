package sql

import (
	"database/sql"

	"github.com/syssam/loom/dialect"
)

// driverDialects maps registered database/sql driver names onto dialect
// tags. The mapping is the explicit connection-factory lookup that replaces
// feature probing: callers register their driver as usual and Open resolves
// the backend class from the name alone.
var driverDialects = map[string]string{
	"sqlite":    dialect.SQLite,
	"sqlite3":   dialect.SQLite,
	"postgres":  dialect.Postgres,
	"pgx":       dialect.Postgres,
	"sqlserver": dialect.MSSQL,
	"mssql":     dialect.MSSQL,
	"odbc":      dialect.ODBC,
	"mysql":     dialect.MySQL,
}

// DialectOf returns the dialect tag for a database/sql driver name. Unknown
// driver names report ok=false and fall back to the name itself, which every
// policy function treats as the default family.
func DialectOf(driverName string) (tag string, ok bool) {
	if tag, ok = driverDialects[driverName]; ok {
		return tag, true
	}
	return driverName, false
}

// Open opens a database/sql connection with the named driver and wraps it in
// a Driver tagged with the matching dialect.
func Open(driverName, dataSource string) (*Driver, error) {
	db, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, err
	}
	tag, _ := DialectOf(driverName)
	return OpenDB(tag, db), nil
}
