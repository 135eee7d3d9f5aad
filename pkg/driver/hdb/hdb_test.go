package hdb

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/hana-backend/pkg/driver"
)

// newTestConn builds a Conn over a sqlmock database, skipping the DSN and
// ping handling in Connect.
func newTestConn(t *testing.T) (*Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)

	sc, err := db.Conn(context.Background())
	require.NoError(t, err)

	return &Conn{db: db, sc: sc, autocommit: true}, mock
}

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1 FROM DUMMY", true},
		{"select id from t", true},
		{"  WITH x AS (SELECT 1 FROM DUMMY) SELECT * FROM x", true},
		{"CALL my_proc(?)", true},
		{"EXPLAIN PLAN FOR SELECT 1 FROM DUMMY", true},
		{"INSERT INTO T VALUES (?)", false},
		{"UPDATE T SET A = ?", false},
		{"DELETE FROM T", false},
		{"CREATE TABLE T (A INTEGER)", false},
		{"SET SCHEMA APP", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, returnsRows(tt.query), tt.query)
	}
}

func TestExecuteRoutesQueries(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT ID, NAME FROM T").
		WillReturnRows(sqlmock.NewRows([]string{"ID", "NAME"}).
			AddRow(int64(1), "a").
			AddRow(int64(2), "b"))

	cur, err := conn.Cursor()
	require.NoError(t, err)

	n, err := cur.Execute(ctx, "SELECT ID, NAME FROM T")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "row-producing statements report zero affected rows")

	cols, err := cur.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "NAME"}, cols)

	rows, err := cur.FetchAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []interface{}{int64(1), "a"}, rows[0])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteRoutesExec(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE T SET A = ?").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 3))

	cur, err := conn.Cursor()
	require.NoError(t, err)

	n, err := cur.Execute(ctx, "UPDATE T SET A = ?", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteManyPreparesOnce(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	prep := mock.ExpectPrepare("INSERT INTO T VALUES (?)")
	prep.ExpectExec().WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 1))

	cur, err := conn.Cursor()
	require.NoError(t, err)

	n, err := cur.ExecuteMany(ctx, "INSERT INTO T VALUES (?)", [][]interface{}{{1}, {2}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutocommitOffUsesTransaction(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO T VALUES (?)").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, conn.SetAutocommit(ctx, false))

	cur, err := conn.Cursor()
	require.NoError(t, err)

	// The transaction begins lazily at the first statement, not at the
	// autocommit toggle.
	_, err = cur.Execute(ctx, "INSERT INTO T VALUES (?)", 1)
	require.NoError(t, err)

	require.NoError(t, conn.Commit(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackDiscardsTransaction(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM T").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	require.NoError(t, conn.SetAutocommit(ctx, false))

	cur, err := conn.Cursor()
	require.NoError(t, err)
	_, err = cur.Execute(ctx, "DELETE FROM T")
	require.NoError(t, err)

	require.NoError(t, conn.Rollback(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReenablingAutocommitCommitsPendingTx(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO T VALUES (?)").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, conn.SetAutocommit(ctx, false))

	cur, err := conn.Cursor()
	require.NoError(t, err)
	_, err = cur.Execute(ctx, "INSERT INTO T VALUES (?)", 1)
	require.NoError(t, err)

	require.NoError(t, conn.SetAutocommit(ctx, true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitWithoutTransactionIsNoop(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	require.NoError(t, conn.Commit(ctx))
	require.NoError(t, conn.Rollback(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextRowStreams(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT ID FROM T").
		WillReturnRows(sqlmock.NewRows([]string{"ID"}).AddRow(int64(1)).AddRow(int64(2)))

	cur, err := conn.Cursor()
	require.NoError(t, err)
	_, err = cur.Execute(ctx, "SELECT ID FROM T")
	require.NoError(t, err)

	hcur := cur.(*Cursor)
	row, err := hcur.NextRow()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1)}, row)

	row, err = hcur.NextRow()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(2)}, row)

	_, err = hcur.NextRow()
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchOneAfterExhaustion(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT ID FROM T").
		WillReturnRows(sqlmock.NewRows([]string{"ID"}).AddRow(int64(1)))

	cur, err := conn.Cursor()
	require.NoError(t, err)
	_, err = cur.Execute(ctx, "SELECT ID FROM T")
	require.NoError(t, err)

	row, err := cur.FetchOne()
	require.NoError(t, err)
	require.NotNil(t, row)

	row, err = cur.FetchOne()
	require.NoError(t, err)
	assert.Nil(t, row)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseIsIdempotent(t *testing.T) {
	conn, mock := newTestConn(t)

	mock.ExpectClose()

	require.NoError(t, conn.Close())
	assert.True(t, conn.Closed())
	require.NoError(t, conn.Close())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	conn, mock := newTestConn(t)
	ctx := context.Background()

	mock.ExpectPing()
	require.NoError(t, conn.Ping(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBindArgsLowersBlobs(t *testing.T) {
	data := []byte{0xde, 0xad}
	out := bindArgs([]interface{}{driver.Blob{Data: data}, 42, "x"})
	assert.Equal(t, []interface{}{data, 42, "x"}, out)
}
