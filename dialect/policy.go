package dialect

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder returns the parameter marker for the n-th bound value (1-based).
// SQLite and ODBC drivers take positional "?", Postgres takes "$n" and the
// native SQL Server driver "@pn". The MySQL family, and any unrecognized
// tag, take "?".
func Placeholder(dialect string, n int) string {
	switch dialect {
	case Postgres:
		return "$" + strconv.Itoa(n)
	case MSSQL:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// quotePair returns the identifier quoting pair for the dialect: brackets
// for the native SQL Server driver, backticks for the MySQL family and
// double quotes otherwise.
func quotePair(dialect string) (string, string) {
	switch {
	case strings.Contains(dialect, MSSQL):
		return "[", "]"
	case strings.Contains(dialect, MySQL):
		return "`", "`"
	default:
		return `"`, `"`
	}
}

// Quote wraps ident in the dialect's quoting pair. Already-wrapped
// identifiers are returned unchanged.
func Quote(dialect, ident string) string {
	if ident == "" {
		return ident
	}
	left, right := quotePair(dialect)
	if !strings.HasPrefix(ident, left) {
		ident = left + ident
	}
	if !strings.HasSuffix(ident, right) {
		ident += right
	}
	return ident
}

// Declared-type keyword families shared by the affinity rules.
var (
	integerTypes = map[string]bool{
		"INT": true, "INTEGER": true, "TINYINT": true, "SMALLINT": true,
		"MEDIUMINT": true, "BIGINT": true, "UNSIGNED BIG INT": true,
		"INT2": true, "INT8": true,
	}
	characterTypes = map[string]bool{
		"CHARACTER": true, "VARCHAR": true, "VARYING CHARACTER": true,
		"CHARACTER VARYING": true, "NCHAR": true, "NATIVE CHARACTER": true,
		"NVARCHAR": true,
	}
	textTypes = map[string]bool{
		"TEXT": true, "CLOB": true, "BLOB": true,
	}
	realTypes = map[string]bool{
		"REAL": true, "DOUBLE": true, "DOUBLE PRECISION": true, "FLOAT": true,
	}
	numericTypes = map[string]bool{
		"NUMERIC": true, "DECIMAL": true, "BOOLEAN": true,
		"DATE": true, "DATETIME": true,
	}
)

// Affinity maps a declared SQL type keyword onto the storage type the
// dialect accepts, and reports whether a length/precision suffix applies.
// The embedded backend only stores INTEGER, TEXT, REAL and NUMERIC; other
// backends pass the declared type through and take a length suffix when the
// type permits one.
func Affinity(dialect, sqlType string) (string, bool) {
	t := strings.ToUpper(sqlType)
	if dialect == SQLite {
		switch {
		case integerTypes[t]:
			return "INTEGER", false
		case characterTypes[t] || t == "TEXT" || t == "CLOB":
			return "TEXT", false
		case realTypes[t]:
			return "REAL", false
		case numericTypes[t]:
			return "NUMERIC", false
		}
		return sqlType, false
	}
	switch {
	case characterTypes[t]:
		return sqlType, true
	case t == "DECIMAL" || t == "NUMERIC":
		return sqlType, true
	case integerTypes[t] || textTypes[t] || realTypes[t]:
		return sqlType, false
	}
	return sqlType, false
}

// AutoIncrement returns the autoincrement clause form: a keyword appended
// after the column definition. Postgres substitutes SERIAL instead of an
// attribute keyword.
func AutoIncrement(dialect string) string {
	switch dialect {
	case SQLite:
		return "AUTOINCREMENT"
	case Postgres:
		return "SERIAL"
	default:
		return "AUTO_INCREMENT"
	}
}

// Tabular reports whether the dialect belongs to the tabular backend
// families, which paginate with TOP and address tables unqualified by a
// database name in join lists.
func Tabular(dialect string) bool {
	d := strings.ToLower(dialect)
	return strings.Contains(d, MSSQL) || strings.Contains(d, ODBC)
}

// UsesTop reports whether the dialect paginates with TOP (n) injected after
// SELECT rather than a trailing LIMIT n.
func UsesTop(dialect string) bool {
	return Tabular(dialect)
}

var namespaceRe = regexp.MustCompile("[^a-z]")

// Namespace derives the deterministic table alias used in join namespacing:
// the table name lower-cased with everything but letters stripped.
func Namespace(table string) string {
	return namespaceRe.ReplaceAllString(strings.ToLower(table), "")
}
