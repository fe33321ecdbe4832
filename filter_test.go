package loom

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/loom/dialect"
	dsql "github.com/syssam/loom/dialect/sql"
	"github.com/syssam/loom/schema/field"
)

func testObjects(t *testing.T, tag string) *Objects {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	m, err := NewModel(ModelConfig{
		Name:  "Member",
		Table: "Members",
		Fields: []field.Field{
			field.Int("ID").Column("id").PrimaryKey(),
			field.Char("Name").Column("Name"),
			field.Int("Age").Column("Age"),
			field.Char("City").Column("City").Nullable(),
		},
	}, dsql.OpenDB(tag, db))
	require.NoError(t, err)
	return m.Objects()
}

func translate(t *testing.T, o *Objects, lookups ...Lookup) (string, []any) {
	t.Helper()
	o.resetParams()
	where, err := o.processFilters(lookups)
	require.NoError(t, err)
	return where, o.whereValues
}

func TestParseLookupKey(t *testing.T) {
	tests := []struct {
		key           string
		fld, fn, op   string
	}{
		{"Name", "Name", "", "and"},
		{"Name__icontains", "Name", "icontains", "and"},
		{"Name__or", "Name", "", "or"},
		{"Age__gte__or", "Age", "gte", "or"},
		{"Age__gte__or_start", "Age", "gte", "or_start"},
		{"Age__lt__and_end", "Age", "lt", "and_end"},
		{"City__in", "City", "in", "and"},
	}
	for _, tt := range tests {
		fld, fn, op := parseLookupKey(tt.key)
		assert.Equal(t, tt.fld, fld, tt.key)
		assert.Equal(t, tt.fn, fn, tt.key)
		assert.Equal(t, tt.op, op, tt.key)
	}
}

func TestProcessFilters(t *testing.T) {
	o := testObjects(t, dialect.MySQL)

	t.Run("Chained", func(t *testing.T) {
		where, values := translate(t, o,
			L("Name__icontains", "bob"),
			L("Age__gte", 21),
		)
		assert.Equal(t, "UPPER(`Name`) LIKE ? AND `Age` >= ?", where)
		assert.Equal(t, []any{"%BOB%", 21}, values)
	})

	t.Run("Grouping", func(t *testing.T) {
		where, values := translate(t, o,
			L("Name", "bob"),
			L("Age__gte__or_start", 18),
			L("Age__lt__and_end", 30),
		)
		assert.Equal(t, "`Name` = ? OR (`Age` >= ? AND `Age` < ?)", where)
		assert.Equal(t, []any{"bob", 18, 30}, values)
	})

	t.Run("OrSuffix", func(t *testing.T) {
		where, values := translate(t, o,
			L("Name", "bob"),
			L("City__or", "Oslo"),
		)
		assert.Equal(t, "`Name` = ? OR `City` = ?", where)
		assert.Equal(t, []any{"bob", "Oslo"}, values)
	})

	t.Run("IsNullBindsNothing", func(t *testing.T) {
		where, values := translate(t, o,
			L("City__isnull", true),
			L("Age__gte", 21),
		)
		assert.Equal(t, "`City` IS NULL AND `Age` >= ?", where)
		assert.Equal(t, []any{21}, values)

		where, values = translate(t, o, L("City__isnull", false))
		assert.Equal(t, "`City` IS NOT NULL", where)
		assert.Empty(t, values)
	})

	t.Run("NilValueSkipsClause", func(t *testing.T) {
		where, values := translate(t, o,
			L("Name", nil),
			L("Age__gte", 21),
		)
		assert.Equal(t, "`Age` >= ?", where)
		assert.Equal(t, []any{21}, values)
	})

	t.Run("InExpandsPerElement", func(t *testing.T) {
		where, values := translate(t, o, L("City__in", []string{"Oslo", "Bergen"}))
		assert.Equal(t, "`City` IN (?, ?)", where)
		assert.Equal(t, []any{"Oslo", "Bergen"}, values)

		where, values = translate(t, o, L("Age__not_in", []int{1, 2, 3}))
		assert.Equal(t, "`Age` NOT IN (?, ?, ?)", where)
		assert.Equal(t, []any{1, 2, 3}, values)

		where, values = translate(t, o, L("Age__in", 7))
		assert.Equal(t, "`Age` IN (?)", where)
		assert.Equal(t, []any{7}, values)
	})

	t.Run("Affixes", func(t *testing.T) {
		where, values := translate(t, o, L("Name__startswith", "bo"))
		assert.Equal(t, "LEFT(`Name`, 2) = ?", where)
		assert.Equal(t, []any{"bo"}, values)

		where, values = translate(t, o, L("Name__endswith", "ob"))
		assert.Equal(t, "RIGHT(`Name`, 2) = ?", where)
		assert.Equal(t, []any{"ob"}, values)

		where, values = translate(t, o, L("Name__iendswith", "ob"))
		assert.Equal(t, "UPPER(RIGHT(`Name`, 2)) = ?", where)
		assert.Equal(t, []any{"OB"}, values)
	})

	t.Run("Length", func(t *testing.T) {
		where, values := translate(t, o, L("Name__length_gt", 3))
		assert.Equal(t, "LENGTH(`Name`) > ?", where)
		assert.Equal(t, []any{3}, values)
	})

	t.Run("NotLike", func(t *testing.T) {
		where, values := translate(t, o, L("Name__not_like", "b%"))
		assert.Equal(t, "`Name` NOT LIKE ?", where)
		assert.Equal(t, []any{"b%"}, values)
	})

	t.Run("UnmappedFieldPassesThrough", func(t *testing.T) {
		where, values := translate(t, o, L("custom_col", 1))
		assert.Equal(t, "custom_col = ?", where)
		assert.Equal(t, []any{1}, values)
	})

	t.Run("StringRequired", func(t *testing.T) {
		o.resetParams()
		_, err := o.processFilters([]Lookup{L("Name__icontains", 42)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a string value")
	})
}

func TestProcessFiltersOrdinals(t *testing.T) {
	o := testObjects(t, dialect.Postgres)
	where, values := translate(t, o,
		L("Name__icontains", "bob"),
		L("Age__gte", 21),
	)
	assert.Equal(t, `UPPER("Name") LIKE $1 AND "Age" >= $2`, where)
	assert.Equal(t, []any{"%BOB%", 21}, values)

	o = testObjects(t, dialect.MSSQL)
	where, values = translate(t, o, L("Age__in", []int{1, 2}))
	assert.Equal(t, "[Age] IN (@p1, @p2)", where)
	assert.Equal(t, []any{1, 2}, values)
}

func TestProcessFiltersLiteral(t *testing.T) {
	o := testObjects(t, dialect.MySQL)
	o.resetParams()
	o.parametrized = false
	where, err := o.processFilters([]Lookup{
		L("Name", "bob"),
		L("Age__gte", 21),
	})
	require.NoError(t, err)
	assert.Equal(t, "`Name` = 'bob' AND `Age` >= 21", where)
	assert.Empty(t, o.whereValues)
	o.parametrized = true
}

func TestSplitControls(t *testing.T) {
	c, rest := splitControls([]Lookup{
		L("Name", "bob"),
		L("result_limit", 10),
		L("order_by", "`Age` DESC"),
		L("parametrized", false),
		L("columns", []string{"`Age` AS Age"}),
		L("select_all", true),
	})
	assert.Equal(t, 10, c.limit)
	assert.Equal(t, "`Age` DESC", c.orderBy)
	assert.False(t, c.parametrized)
	assert.Equal(t, []string{"`Age` AS Age"}, c.columns)
	assert.True(t, c.selectAll)
	require.Len(t, rest, 1)
	assert.Equal(t, "Name", rest[0].Key)

	c, _ = splitControls(nil)
	assert.True(t, c.parametrized)
	assert.Zero(t, c.limit)
}

func TestBuildQuery(t *testing.T) {
	t.Run("Limit", func(t *testing.T) {
		o := testObjects(t, dialect.MySQL)
		query := o.buildQuery(o.columns, "`Age` >= ?", "`Age` DESC", 5)
		assert.Equal(t,
			"SELECT `id` AS ID,`Name` AS Name,`Age` AS Age,`City` AS City "+
				"FROM Members WHERE `Age` >= ? ORDER BY `Age` DESC LIMIT 5;",
			query)
	})

	t.Run("Top", func(t *testing.T) {
		o := testObjects(t, dialect.MSSQL)
		query := o.buildQuery([]string{"[Age] AS Age"}, "[Age] >= @p1", "", 5)
		assert.Equal(t, "SELECT TOP (5) [Age] AS Age FROM Members WHERE [Age] >= @p1;", query)
	})

	t.Run("NoClauses", func(t *testing.T) {
		o := testObjects(t, dialect.SQLite)
		query := o.buildQuery([]string{"*"}, "", "", 0)
		assert.Equal(t, "SELECT * FROM Members;", query)
	})
}
