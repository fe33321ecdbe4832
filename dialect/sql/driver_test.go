package sql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/loom/dialect"
)

func TestExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db)
	defer drv.Close()

	mock.ExpectExec("DELETE FROM members").WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, drv.Exec(context.Background(), "DELETE FROM members", []any{}, nil))

	mock.ExpectExec("DELETE FROM members").WillReturnResult(sqlmock.NewResult(0, 3))
	var res Result
	require.NoError(t, drv.Exec(context.Background(), "DELETE FROM members", []any{}, &res))
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	err = drv.Exec(context.Background(), "DELETE FROM members", []any{}, "not a result")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid type")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.SQLite, db)
	defer drv.Close()

	mock.ExpectQuery("SELECT id FROM members").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT id FROM members", []any{}, rows))
	require.NoError(t, rows.Close())

	err = drv.Query(context.Background(), "SELECT id FROM members", []any{}, "not rows")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid type")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.Postgres, db)
	defer drv.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO members").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO members", []any{}, nil))
	require.NoError(t, tx.Commit())

	mock.ExpectBegin()
	mock.ExpectRollback()
	tx, err = drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanMaps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db)
	defer drv.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"Name", "Age"}).
			AddRow([]byte("bob"), 21).
			AddRow([]byte("alice"), 34),
	)
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT Name, Age FROM members", []any{}, rows))
	maps, err := ScanMaps(rows)
	require.NoError(t, err)
	require.Len(t, maps, 2)
	assert.Equal(t, "bob", maps[0]["Name"])
	assert.Equal(t, int64(21), maps[0]["Age"])
	assert.Equal(t, "alice", maps[1]["Name"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialectOf(t *testing.T) {
	tests := []struct {
		driver string
		tag    string
		known  bool
	}{
		{"sqlite", dialect.SQLite, true},
		{"sqlite3", dialect.SQLite, true},
		{"postgres", dialect.Postgres, true},
		{"pgx", dialect.Postgres, true},
		{"sqlserver", dialect.MSSQL, true},
		{"mssql", dialect.MSSQL, true},
		{"odbc", dialect.ODBC, true},
		{"mysql", dialect.MySQL, true},
		{"cockroach", "cockroach", false},
	}
	for _, tt := range tests {
		tag, known := DialectOf(tt.driver)
		assert.Equal(t, tt.tag, tag, tt.driver)
		assert.Equal(t, tt.known, known, tt.driver)
	}
}
