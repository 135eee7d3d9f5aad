package hana

import (
	"context"
	"errors"
	"io"

	"github.com/redbco/hana-backend/pkg/adapter"
	"github.com/redbco/hana-backend/pkg/driver"
)

// executedStmt is one statement as seen by the fake driver, after the
// backend's placeholder translation.
type executedStmt struct {
	query string
	args  []interface{}
	sets  [][]interface{}
}

// fakeDriver counts dials and hands out a single scripted connection.
type fakeDriver struct {
	dials      int
	connectErr error
	conn       *fakeConn
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{conn: newFakeConn()}
}

func (d *fakeDriver) Connect(ctx context.Context, params driver.Params) (driver.Conn, error) {
	d.dials++
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	d.conn.params = params
	return d.conn, nil
}

// fakeConn records every statement and replays scripted results. Results and
// errors are consumed in FIFO order; an empty script means success with no
// rows.
type fakeConn struct {
	params     driver.Params
	autocommit bool
	closed     bool
	pingErr    error

	commits     int
	rollbacks   int
	rollbackErr error
	// autocommitLog records every SetAutocommit call in order.
	autocommitLog []bool

	executed []executedStmt
	// scriptErrs are returned by Execute/ExecuteMany in order; nil entries
	// mean success.
	scriptErrs []error
	// rows and cols are attached to the cursor by the next row-producing
	// Execute.
	rows [][]interface{}
	cols []string
	// streaming selects the cursor flavor handed out by Cursor.
	streaming bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{autocommit: true}
}

func (c *fakeConn) scriptError(err error) {
	c.scriptErrs = append(c.scriptErrs, err)
}

func (c *fakeConn) nextErr() error {
	if len(c.scriptErrs) == 0 {
		return nil
	}
	err := c.scriptErrs[0]
	c.scriptErrs = c.scriptErrs[1:]
	return err
}

func (c *fakeConn) Cursor() (driver.Cursor, error) {
	if c.closed {
		return nil, errors.New("connection closed")
	}
	if c.streaming {
		return &fakeStreamCursor{fakeCursor: fakeCursor{conn: c}}, nil
	}
	return &fakeCursor{conn: c}, nil
}

func (c *fakeConn) SetAutocommit(ctx context.Context, enabled bool) error {
	c.autocommitLog = append(c.autocommitLog, enabled)
	c.autocommit = enabled
	return nil
}

func (c *fakeConn) Commit(ctx context.Context) error {
	c.commits++
	return nil
}

func (c *fakeConn) Rollback(ctx context.Context) error {
	c.rollbacks++
	return c.rollbackErr
}

func (c *fakeConn) Ping(ctx context.Context) error {
	if c.closed {
		return errors.New("connection closed")
	}
	return c.pingErr
}

func (c *fakeConn) Closed() bool {
	return c.closed
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// fakeCursor implements the base cursor surface without row streaming, so
// the wrapper falls back to FetchAll for iteration.
type fakeCursor struct {
	conn    *fakeConn
	rows    [][]interface{}
	cols    []string
	fetched int
}

func (cu *fakeCursor) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	cu.conn.executed = append(cu.conn.executed, executedStmt{query: query, args: args})
	if err := cu.conn.nextErr(); err != nil {
		return 0, err
	}
	cu.rows = cu.conn.rows
	cu.cols = cu.conn.cols
	cu.fetched = 0
	return int64(len(cu.rows)), nil
}

func (cu *fakeCursor) ExecuteMany(ctx context.Context, query string, argSets [][]interface{}) (int64, error) {
	cu.conn.executed = append(cu.conn.executed, executedStmt{query: query, sets: argSets})
	if err := cu.conn.nextErr(); err != nil {
		return 0, err
	}
	return int64(len(argSets)), nil
}

func (cu *fakeCursor) FetchAll() ([][]interface{}, error) {
	rows := cu.rows[cu.fetched:]
	cu.fetched = len(cu.rows)
	return rows, nil
}

func (cu *fakeCursor) FetchOne() ([]interface{}, error) {
	if cu.fetched >= len(cu.rows) {
		return nil, nil
	}
	row := cu.rows[cu.fetched]
	cu.fetched++
	return row, nil
}

func (cu *fakeCursor) Columns() ([]string, error) {
	return cu.cols, nil
}

func (cu *fakeCursor) Close() error {
	return nil
}

// fakeStreamCursor additionally implements driver.RowStreamer.
type fakeStreamCursor struct {
	fakeCursor
	// streamed counts NextRow calls that produced a row.
	streamed int
}

func (cu *fakeStreamCursor) NextRow() ([]interface{}, error) {
	if cu.fetched >= len(cu.rows) {
		return nil, io.EOF
	}
	row := cu.rows[cu.fetched]
	cu.fetched++
	cu.streamed++
	return row, nil
}

// lastExecuted returns the most recent statement seen by the fake.
func (c *fakeConn) lastExecuted() executedStmt {
	if len(c.executed) == 0 {
		return executedStmt{}
	}
	return c.executed[len(c.executed)-1]
}

// connectFake opens a connection over a fresh fake driver.
func connectFake(t interface{ Fatalf(string, ...interface{}) }, opts ...ConnectOption) (*Connection, *fakeDriver) {
	drv := newFakeDriver()
	conn, err := ConnectWithDriver(context.Background(), drv, validConfig(), opts...)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return conn, drv
}

func validConfig() adapter.ConnectionConfig {
	return adapter.ConnectionConfig{
		Host:       "hana.example.com",
		Port:       30015,
		Username:   "SYSTEM",
		Password:   "secret",
		SchemaName: "app",
	}
}
