// Package hdb implements the driver contracts on top of the go-hdb
// database/sql driver. One physical session is pinned per Conn so that
// session-scoped state (SET SCHEMA, autocommit) stays stable.
package hdb

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	hdbdriver "github.com/SAP/go-hdb/driver"

	"github.com/redbco/hana-backend/pkg/driver"
)

// Driver connects to SAP HANA through go-hdb.
type Driver struct{}

// Connect opens a session to the database and verifies it with a ping.
func (Driver) Connect(ctx context.Context, params driver.Params) (driver.Conn, error) {
	dsn := &url.URL{
		Scheme: "hdb",
		User:   url.UserPassword(params.User, params.Password),
		Host:   net.JoinHostPort(params.Host, strconv.Itoa(params.Port)),
	}

	db, err := sql.Open("hdb", dsn.String())
	if err != nil {
		return nil, translateError(err)
	}

	// The backend owns exactly one session; the pool exists only to hold it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	sc, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, translateError(err)
	}
	if err := sc.PingContext(ctx); err != nil {
		sc.Close()
		db.Close()
		return nil, translateError(err)
	}

	return &Conn{db: db, sc: sc, autocommit: true}, nil
}

// Conn is a pinned go-hdb session. With autocommit off, statements run inside
// a lazily begun sql.Tx that Commit/Rollback ends.
type Conn struct {
	db         *sql.DB
	sc         *sql.Conn
	tx         *sql.Tx
	autocommit bool
	closed     int32
}

// executor is the common statement surface of sql.Conn and sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (c *Conn) executor(ctx context.Context) (executor, error) {
	if c.Closed() {
		return nil, sql.ErrConnDone
	}
	if c.autocommit {
		return c.sc, nil
	}
	if c.tx == nil {
		tx, err := c.sc.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		c.tx = tx
	}
	return c.tx, nil
}

// Cursor returns a new statement handle bound to this session.
func (c *Conn) Cursor() (driver.Cursor, error) {
	if c.Closed() {
		return nil, sql.ErrConnDone
	}
	return &Cursor{conn: c}, nil
}

// SetAutocommit toggles autocommit mode. Re-enabling it ends a pending
// transaction by committing it; the caller is expected to have rolled back
// first if that is not wanted.
func (c *Conn) SetAutocommit(ctx context.Context, enabled bool) error {
	if c.Closed() {
		return sql.ErrConnDone
	}
	if enabled && c.tx != nil {
		if err := c.tx.Commit(); err != nil {
			c.tx = nil
			return translateError(err)
		}
		c.tx = nil
	}
	c.autocommit = enabled
	return nil
}

// Commit ends the pending transaction, if any.
func (c *Conn) Commit(ctx context.Context) error {
	if c.Closed() {
		return sql.ErrConnDone
	}
	if c.tx == nil {
		return nil
	}
	err := c.tx.Commit()
	c.tx = nil
	return translateError(err)
}

// Rollback discards the pending transaction, if any.
func (c *Conn) Rollback(ctx context.Context) error {
	if c.Closed() {
		return sql.ErrConnDone
	}
	if c.tx == nil {
		return nil
	}
	err := c.tx.Rollback()
	c.tx = nil
	return translateError(err)
}

// Ping reports whether the session is still usable.
func (c *Conn) Ping(ctx context.Context) error {
	if c.Closed() {
		return sql.ErrConnDone
	}
	return translateError(c.sc.PingContext(ctx))
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// Close releases the session exactly once; later calls are no-ops.
func (c *Conn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	if c.tx != nil {
		c.tx.Rollback()
		c.tx = nil
	}
	err := c.sc.Close()
	if cerr := c.db.Close(); err == nil {
		err = cerr
	}
	return translateError(err)
}

// Cursor executes statements on its owning Conn. Statement text that opens a
// result set is routed to Query, everything else to Exec; the produced rows
// stay attached to the cursor until fetched or replaced.
type Cursor struct {
	conn     *Conn
	rows     *sql.Rows
	cols     []string
	rowcount int64
}

// rowPrefixes are the leading keywords of statements that produce rows.
var rowPrefixes = []string{"SELECT", "WITH", "CALL", "EXPLAIN"}

func returnsRows(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	head := strings.ToUpper(fields[0])
	for _, p := range rowPrefixes {
		if head == p {
			return true
		}
	}
	return false
}

// Execute runs one statement with the given arguments.
func (cu *Cursor) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	ex, err := cu.conn.executor(ctx)
	if err != nil {
		return 0, translateError(err)
	}
	cu.reset()

	if returnsRows(query) {
		rows, err := ex.QueryContext(ctx, query, bindArgs(args)...)
		if err != nil {
			return 0, translateError(err)
		}
		cu.rows = rows
		cu.cols, _ = rows.Columns()
		return 0, nil
	}

	res, err := ex.ExecContext(ctx, query, bindArgs(args)...)
	if err != nil {
		return 0, translateError(err)
	}
	n, _ := res.RowsAffected()
	cu.rowcount = n
	return n, nil
}

// ExecuteMany prepares the statement once and runs it for every argument set.
func (cu *Cursor) ExecuteMany(ctx context.Context, query string, argSets [][]interface{}) (int64, error) {
	ex, err := cu.conn.executor(ctx)
	if err != nil {
		return 0, translateError(err)
	}
	cu.reset()

	stmt, err := ex.PrepareContext(ctx, query)
	if err != nil {
		return 0, translateError(err)
	}
	defer stmt.Close()

	var total int64
	for _, args := range argSets {
		res, err := stmt.ExecContext(ctx, bindArgs(args)...)
		if err != nil {
			return total, translateError(err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	cu.rowcount = total
	return total, nil
}

// NextRow implements driver.RowStreamer over the attached result set.
func (cu *Cursor) NextRow() ([]interface{}, error) {
	if cu.rows == nil {
		return nil, io.EOF
	}
	if !cu.rows.Next() {
		err := cu.rows.Err()
		cu.rows.Close()
		cu.rows = nil
		if err != nil {
			return nil, translateError(err)
		}
		return nil, io.EOF
	}
	return scanRow(cu.rows, len(cu.cols))
}

// FetchAll drains every remaining row from the attached result set.
func (cu *Cursor) FetchAll() ([][]interface{}, error) {
	if cu.rows == nil {
		return nil, nil
	}
	defer func() {
		cu.rows.Close()
		cu.rows = nil
	}()

	var result [][]interface{}
	for cu.rows.Next() {
		row, err := scanRow(cu.rows, len(cu.cols))
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, translateError(cu.rows.Err())
}

// FetchOne returns the next row, or nil when exhausted.
func (cu *Cursor) FetchOne() ([]interface{}, error) {
	row, err := cu.NextRow()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return row, err
}

// Columns returns the column names of the last row-producing Execute.
func (cu *Cursor) Columns() ([]string, error) {
	return cu.cols, nil
}

// Close releases the attached result set. The session stays open.
func (cu *Cursor) Close() error {
	cu.reset()
	return nil
}

func (cu *Cursor) reset() {
	if cu.rows != nil {
		cu.rows.Close()
		cu.rows = nil
	}
	cu.cols = nil
	cu.rowcount = 0
}

func scanRow(rows *sql.Rows, width int) ([]interface{}, error) {
	values := make([]interface{}, width)
	valuePtrs := make([]interface{}, width)
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, translateError(err)
	}
	return values, nil
}

// bindArgs lowers backend parameter types to what go-hdb accepts.
func bindArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		if b, ok := a.(driver.Blob); ok {
			out[i] = b.Data
			continue
		}
		out[i] = a
	}
	return out
}

// translateError surfaces the server's numeric error code through
// driver.Error while keeping the original error reachable.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var dbErr hdbdriver.DBError
	if errors.As(err, &dbErr) {
		return driver.NewServerError(dbErr.Code(), dbErr.Text(), err)
	}
	return err
}
