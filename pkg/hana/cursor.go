package hana

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redbco/hana-backend/pkg/adapter"
	"github.com/redbco/hana-backend/pkg/dbcapabilities"
	"github.com/redbco/hana-backend/pkg/driver"
)

// integrityErrorCodes lists the server error codes that are reported as
// generic SQL errors but actually signal a constraint violation. Code 301 is
// "unique constraint violated".
var integrityErrorCodes = map[int]bool{
	301: true,
}

// Cursor presents a uniform statement-execution surface over the driver
// cursor. Callers write SQL with %s-style positional placeholders; the
// cursor rewrites them to the question-mark markers HANA expects, and
// reclassifies driver failures into the adapter error taxonomy.
//
// With debug set (from the connection config, or always through
// DebugCursor), every statement is additionally timed and recorded in the
// connection's query log.
//
// Capabilities beyond the ones implemented here are reached through Raw;
// there is no implicit forwarding.
type Cursor struct {
	drv   driver.Cursor
	conn  *Connection
	debug bool
}

// translatePlaceholders replaces every literal %s with ?. This is a pure
// text substitution, not SQL-aware parsing: a %s inside a quoted string
// constant is rewritten too. Kept byte-compatible with the historical
// behavior because statement text produced by callers relies on it.
func translatePlaceholders(query string) string {
	return strings.ReplaceAll(query, "%s", "?")
}

// Execute translates the placeholders, marks the connection dirty when
// autocommit is off, and delegates to the driver. The driver's result (row
// count, where known) passes through unchanged.
func (c *Cursor) Execute(ctx context.Context, query string, params ...interface{}) (n int64, err error) {
	if !c.conn.alive() {
		return 0, adapter.ErrConnectionClosed
	}
	c.conn.MarkDirty()
	sanitized := c.conn.ops.SanitizeParams(params)
	translated := translatePlaceholders(query)
	if c.debug {
		start := time.Now()
		defer func() {
			logged := sanitizeForLog(sanitized)
			c.record(c.conn.ops.LastExecutedQuery(translated, logged), logged, time.Since(start), err)
		}()
	}
	n, err = c.drv.Execute(ctx, translated, sanitized...)
	if err != nil {
		return 0, remapDriverError("execute", err)
	}
	return n, nil
}

// ExecuteMany translates the statement once and lets the driver iterate over
// all parameter sets.
func (c *Cursor) ExecuteMany(ctx context.Context, query string, paramSets [][]interface{}) (n int64, err error) {
	if !c.conn.alive() {
		return 0, adapter.ErrConnectionClosed
	}
	c.conn.MarkDirty()
	sets := make([][]interface{}, len(paramSets))
	for i, set := range paramSets {
		sets[i] = c.conn.ops.SanitizeParams(set)
	}
	if c.debug {
		start := time.Now()
		defer func() {
			c.record(fmt.Sprintf("%d times: %s", len(paramSets), query), sanitizeForLog(flatten(sets)), time.Since(start), err)
		}()
	}
	n, err = c.drv.ExecuteMany(ctx, translatePlaceholders(query), sets)
	if err != nil {
		return 0, remapDriverError("executemany", err)
	}
	return n, nil
}

// FetchAll drains every remaining row from the last Execute.
func (c *Cursor) FetchAll() ([][]interface{}, error) {
	rows, err := c.drv.FetchAll()
	if err != nil {
		return nil, remapDriverError("fetchall", err)
	}
	return rows, nil
}

// FetchOne returns the next row, or nil when exhausted.
func (c *Cursor) FetchOne() ([]interface{}, error) {
	row, err := c.drv.FetchOne()
	if err != nil {
		return nil, remapDriverError("fetchone", err)
	}
	return row, nil
}

// Columns returns the column names of the last row-producing Execute.
func (c *Cursor) Columns() ([]string, error) {
	cols, err := c.drv.Columns()
	if err != nil {
		return nil, remapDriverError("columns", err)
	}
	return cols, nil
}

// Rows returns a one-shot iterator over the rows produced by the last
// Execute. When the driver cursor streams rows natively the iterator reads
// from it directly; otherwise the rows are materialized once through
// FetchAll and iterated from memory. Either way exactly one traversal is
// produced; a finished iterator yields no further rows.
func (c *Cursor) Rows() (*Rows, error) {
	if streamer, ok := c.drv.(driver.RowStreamer); ok {
		return &Rows{stream: streamer}, nil
	}
	buf, err := c.FetchAll()
	if err != nil {
		return nil, err
	}
	return &Rows{buf: buf}, nil
}

// Release ends scoped use of the cursor. It deliberately does not close the
// underlying driver cursor: cursors are caller-managed, not scope-managed,
// and downstream code may keep using one past a scope boundary. Use Close to
// actually free the handle.
func (c *Cursor) Release() {}

// Close frees the underlying driver cursor.
func (c *Cursor) Close() error {
	if err := c.drv.Close(); err != nil {
		return remapDriverError("close", err)
	}
	return nil
}

// Connection returns the owning connection.
func (c *Cursor) Connection() *Connection {
	return c.conn
}

// Raw exposes the underlying driver cursor for driver-specific operations
// not covered by the wrapper. Raw access does not mark the connection dirty;
// only Execute and ExecuteMany do.
func (c *Cursor) Raw() driver.Cursor {
	return c.drv
}

// remapDriverError re-types a driver failure into the adapter taxonomy,
// keeping the original error reachable through the cause chain. A numeric
// code in the known integrity set becomes an IntegrityError; everything else
// becomes a DatabaseError. Nothing is ever swallowed.
func remapDriverError(operation string, err error) error {
	var de driver.Error
	if errors.As(err, &de) && integrityErrorCodes[de.Code()] {
		return adapter.NewIntegrityError(dbcapabilities.HANA, de.Code(), err)
	}
	return adapter.WrapError(dbcapabilities.HANA, operation, err)
}

// Rows is a single traversal over a result set.
type Rows struct {
	stream driver.RowStreamer
	buf    [][]interface{}
	idx    int
	done   bool
	err    error
}

// Next returns the next row. The second result is false once the traversal
// is exhausted or failed; check Err afterwards.
func (r *Rows) Next() ([]interface{}, bool) {
	if r.done {
		return nil, false
	}
	if r.stream != nil {
		row, err := r.stream.NextRow()
		if err != nil {
			r.done = true
			if !errors.Is(err, io.EOF) {
				r.err = remapDriverError("next", err)
			}
			return nil, false
		}
		return row, true
	}
	if r.idx >= len(r.buf) {
		r.done = true
		return nil, false
	}
	row := r.buf[r.idx]
	r.idx++
	return row, true
}

// Err returns the terminal error of the traversal, if any.
func (r *Rows) Err() error {
	return r.err
}
