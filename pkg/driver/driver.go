// Package driver defines the narrow client-driver surface the HANA backend
// runs on. The production implementation lives in the hdb subpackage; tests
// substitute fakes. The backend never talks to the wire protocol itself.
package driver

import "context"

// Params holds the parameters needed to open a physical session.
type Params struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Driver opens physical database sessions.
type Driver interface {
	Connect(ctx context.Context, params Params) (Conn, error)
}

// Conn is one live session to the database. A Conn and its cursors are not
// safe for concurrent use; one logical worker owns a Conn at a time.
type Conn interface {
	// Cursor returns a new statement handle bound to this session.
	Cursor() (Cursor, error)

	// SetAutocommit toggles autocommit mode; affects subsequent statements only.
	SetAutocommit(ctx context.Context, enabled bool) error

	// Commit and Rollback end the pending unit of work, if any.
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Ping reports whether the session is still usable.
	Ping(ctx context.Context) error

	// Closed reports whether Close has been called.
	Closed() bool

	// Close releases the physical session. Safe to call more than once.
	Close() error
}

// Cursor executes statements and fetches the rows they produce. The native
// placeholder marker is the question mark.
type Cursor interface {
	// Execute runs one statement. For statements that produce rows the
	// returned count is zero and the rows are fetched from the cursor; for
	// others it is the affected row count.
	Execute(ctx context.Context, query string, args ...interface{}) (int64, error)

	// ExecuteMany runs one statement once per argument set, reusing a single
	// prepared handle. Returns the total affected row count.
	ExecuteMany(ctx context.Context, query string, argSets [][]interface{}) (int64, error)

	// FetchAll drains and returns every remaining row from the last Execute,
	// or nil if the statement produced no rows.
	FetchAll() ([][]interface{}, error)

	// FetchOne returns the next row, or nil when the rows are exhausted or
	// the statement produced none.
	FetchOne() ([]interface{}, error)

	// Columns returns the column names of the last row-producing Execute.
	Columns() ([]string, error)

	// Close releases the statement handle. It does not affect the session.
	Close() error
}

// RowStreamer is an optional Cursor capability for row-at-a-time iteration.
// Cursors that do not implement it are drained through FetchAll instead.
type RowStreamer interface {
	// NextRow returns the next row, or io.EOF when the rows are exhausted.
	NextRow() ([]interface{}, error)
}

// Error is implemented by driver errors that carry the database's numeric
// error code. The backend classifies failures by this code.
type Error interface {
	error
	Code() int
}

// Blob marks a parameter value as a large binary object. The hdb
// implementation binds it as raw bytes; the debug cursor sanitizes it to its
// plain byte form before logging.
type Blob struct {
	Data []byte
}

// ServerError is the concrete Error returned by driver implementations for
// failures reported by the database server.
type ServerError struct {
	code  int
	text  string
	cause error
}

// NewServerError creates a ServerError preserving the original driver error.
func NewServerError(code int, text string, cause error) *ServerError {
	return &ServerError{code: code, text: text, cause: cause}
}

// Code returns the database's numeric error code.
func (e *ServerError) Code() int { return e.code }

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.text != "" {
		return e.text
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return "database server error"
}

// Unwrap returns the original driver error.
func (e *ServerError) Unwrap() error { return e.cause }
