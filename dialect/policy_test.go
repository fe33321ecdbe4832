package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		dialect string
		n       int
		want    string
	}{
		{SQLite, 1, "?"},
		{SQLite, 3, "?"},
		{ODBC, 1, "?"},
		{MySQL, 2, "?"},
		{Postgres, 1, "$1"},
		{Postgres, 7, "$7"},
		{MSSQL, 1, "@p1"},
		{MSSQL, 4, "@p4"},
		{"cockroach", 1, "?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Placeholder(tt.dialect, tt.n), "%s/%d", tt.dialect, tt.n)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		dialect string
		ident   string
		want    string
	}{
		{SQLite, "Member", `"Member"`},
		{Postgres, "Member", `"Member"`},
		{ODBC, "Member", "[Member]"},
		{MSSQL, "Member", "[Member]"},
		{MySQL, "Member", "`Member`"},
		{"unknown", "Member", `"Member"`},
		{"", "Member", `"Member"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quote(tt.dialect, tt.ident), tt.dialect)
	}

	t.Run("Idempotent", func(t *testing.T) {
		once := Quote(MySQL, "Member")
		assert.Equal(t, once, Quote(MySQL, once))
		once = Quote(MSSQL, "Member")
		assert.Equal(t, once, Quote(MSSQL, once))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "", Quote(MySQL, ""))
	})
}

func TestAffinity(t *testing.T) {
	t.Run("Embedded", func(t *testing.T) {
		tests := []struct {
			sqlType string
			want    string
		}{
			{"INT", "INTEGER"},
			{"BIGINT", "INTEGER"},
			{"VARCHAR", "TEXT"},
			{"NVARCHAR", "TEXT"},
			{"TEXT", "TEXT"},
			{"CLOB", "TEXT"},
			{"FLOAT", "REAL"},
			{"DOUBLE PRECISION", "REAL"},
			{"DECIMAL", "NUMERIC"},
			{"BOOLEAN", "NUMERIC"},
			{"DATE", "NUMERIC"},
			{"DATETIME", "NUMERIC"},
		}
		for _, tt := range tests {
			got, hasLength := Affinity(SQLite, tt.sqlType)
			assert.Equal(t, tt.want, got, tt.sqlType)
			assert.False(t, hasLength, tt.sqlType)
		}
	})

	t.Run("Passthrough", func(t *testing.T) {
		got, hasLength := Affinity(Postgres, "VARCHAR")
		assert.Equal(t, "VARCHAR", got)
		assert.True(t, hasLength)

		got, hasLength = Affinity(MySQL, "DECIMAL")
		assert.Equal(t, "DECIMAL", got)
		assert.True(t, hasLength)

		got, hasLength = Affinity(Postgres, "BIGINT")
		assert.Equal(t, "BIGINT", got)
		assert.False(t, hasLength)

		got, hasLength = Affinity(MSSQL, "TEXT")
		assert.Equal(t, "TEXT", got)
		assert.False(t, hasLength)
	})

	t.Run("UnknownType", func(t *testing.T) {
		got, hasLength := Affinity(SQLite, "GEOMETRY")
		assert.Equal(t, "GEOMETRY", got)
		assert.False(t, hasLength)
	})
}

func TestAutoIncrement(t *testing.T) {
	assert.Equal(t, "AUTOINCREMENT", AutoIncrement(SQLite))
	assert.Equal(t, "SERIAL", AutoIncrement(Postgres))
	assert.Equal(t, "AUTO_INCREMENT", AutoIncrement(MySQL))
	assert.Equal(t, "AUTO_INCREMENT", AutoIncrement(MSSQL))
	assert.Equal(t, "AUTO_INCREMENT", AutoIncrement("unknown"))
}

func TestTabular(t *testing.T) {
	assert.True(t, UsesTop(MSSQL))
	assert.True(t, UsesTop(ODBC))
	assert.False(t, UsesTop(SQLite))
	assert.False(t, UsesTop(Postgres))
	assert.False(t, UsesTop(MySQL))
	assert.False(t, UsesTop("unknown"))
}

func TestNamespace(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"Member", "member"},
		{"MemberOrders", "memberorders"},
		{"member_orders", "memberorders"},
		{"Orders2024", "orders"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Namespace(tt.table), tt.table)
	}
}
