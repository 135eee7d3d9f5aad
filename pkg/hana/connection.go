package hana

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/redbco/hana-backend/pkg/adapter"
	"github.com/redbco/hana-backend/pkg/dbcapabilities"
	"github.com/redbco/hana-backend/pkg/driver"
	"github.com/redbco/hana-backend/pkg/driver/hdb"
	"github.com/redbco/hana-backend/pkg/logger"
)

// Connection is one live session to a SAP HANA database. It owns the dirty
// flag, the autocommit state, the query log, and the schema selected at
// connect time.
//
// A Connection and its cursors are not safe for concurrent use by multiple
// goroutines without external serialization; one logical worker owns a
// Connection at a time.
type Connection struct {
	id     string
	cfg    adapter.ConnectionConfig
	drv    driver.Conn
	schema string

	autocommit bool
	dirty      bool
	txDepth    int
	connected  int32

	ops      *Operations
	queryLog *QueryLog
	logger   *logger.Logger
}

// ConnectOption customizes a Connection before the physical session opens.
type ConnectOption func(*Connection)

// WithLogger sets the logger used by debug cursors and lifecycle messages.
func WithLogger(l *logger.Logger) ConnectOption {
	return func(c *Connection) { c.logger = l }
}

// Connect validates the configuration, opens a session through the go-hdb
// driver, and selects the configured schema before returning.
func Connect(ctx context.Context, cfg adapter.ConnectionConfig, opts ...ConnectOption) (*Connection, error) {
	return ConnectWithDriver(ctx, hdb.Driver{}, cfg, opts...)
}

// ConnectWithDriver is Connect with an explicit driver, used to substitute
// fakes in tests. Validation happens before the driver is dialed; a missing
// required parameter never reaches the network.
func ConnectWithDriver(ctx context.Context, drv driver.Driver, cfg adapter.ConnectionConfig, opts ...ConnectOption) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dconn, err := drv.Connect(ctx, driver.Params{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, adapter.NewConnectionError(dbcapabilities.HANA, cfg.Host, cfg.Port, err)
	}

	c := &Connection{
		id:         cfg.DatabaseID,
		cfg:        cfg,
		drv:        dconn,
		schema:     strings.ToUpper(cfg.SchemaName),
		autocommit: true,
		connected:  1,
		ops:        NewOperations(),
		queryLog:   NewQueryLog(cfg.QueryLogSize),
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	for _, opt := range opts {
		opt(c)
	}

	cur, err := c.Cursor()
	if err != nil {
		dconn.Close()
		return nil, adapter.NewConnectionError(dbcapabilities.HANA, cfg.Host, cfg.Port, err)
	}
	if _, err := cur.Execute(ctx, "SET SCHEMA "+c.schema); err != nil {
		dconn.Close()
		return nil, adapter.NewConnectionError(dbcapabilities.HANA, cfg.Host, cfg.Port, err)
	}

	if c.logger != nil {
		c.logger.Infof("connected to %s:%d schema=%s id=%s", cfg.Host, cfg.Port, c.schema, c.id)
	}
	return c, nil
}

// ID returns the connection identifier.
func (c *Connection) ID() string {
	return c.id
}

// Type returns the database type.
func (c *Connection) Type() dbcapabilities.DatabaseID {
	return dbcapabilities.HANA
}

// Capabilities returns the capability metadata for SAP HANA.
func (c *Connection) Capabilities() dbcapabilities.Capability {
	return dbcapabilities.MustGet(dbcapabilities.HANA)
}

// Schema returns the upper-cased schema selected at connect time.
func (c *Connection) Schema() string {
	return c.schema
}

// Config returns the connection configuration.
func (c *Connection) Config() adapter.ConnectionConfig {
	return c.cfg
}

// Operations returns the SQL dialect helpers bound to this backend.
func (c *Connection) Operations() *Operations {
	return c.ops
}

// QueryLog returns the per-connection query log. Entries accumulate only
// through debug cursors; the caller decides when to clear it.
func (c *Connection) QueryLog() *QueryLog {
	return c.queryLog
}

// Raw returns the underlying driver session. Use it only for driver-specific
// operations not covered by the backend surface.
func (c *Connection) Raw() driver.Conn {
	return c.drv
}

func (c *Connection) alive() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

// IsConnected reports whether Close has not yet been called.
func (c *Connection) IsConnected() bool {
	return c.alive()
}

// IsUsable reports whether the underlying session still answers. It never
// returns an error; any failure reads as false.
func (c *Connection) IsUsable(ctx context.Context) bool {
	if !c.alive() {
		return false
	}
	return c.drv.Ping(ctx) == nil
}

// Close invalidates the connection and releases the physical session exactly
// once. Closing an already-closed connection is a no-op.
func (c *Connection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		return nil
	}
	if c.logger != nil {
		c.logger.Infof("closing connection id=%s", c.id)
	}
	return c.drv.Close()
}

// Cursor returns a new cursor wrapper bound to this connection. On
// connections configured with Debug the cursor records every statement in
// the query log.
func (c *Connection) Cursor() (*Cursor, error) {
	if !c.alive() {
		return nil, adapter.ErrConnectionClosed
	}
	drvCur, err := c.drv.Cursor()
	if err != nil {
		return nil, adapter.WrapError(dbcapabilities.HANA, "cursor", err)
	}
	return &Cursor{drv: drvCur, conn: c, debug: c.cfg.Debug}, nil
}

// DebugCursor returns a cursor that times every statement, appends to the
// query log, and emits a structured diagnostic record per call, regardless
// of the connection's Debug setting.
func (c *Connection) DebugCursor() (*DebugCursor, error) {
	cur, err := c.Cursor()
	if err != nil {
		return nil, err
	}
	cur.debug = true
	return &DebugCursor{Cursor: cur}, nil
}

// WithCursor runs fn with a fresh cursor and releases it on exit. Release is
// advisory; see Cursor.Release.
func (c *Connection) WithCursor(ctx context.Context, fn func(*Cursor) error) error {
	cur, err := c.Cursor()
	if err != nil {
		return err
	}
	defer cur.Release()
	return fn(cur)
}

// Autocommit reports the current autocommit state.
func (c *Connection) Autocommit() bool {
	return c.autocommit
}

// SetAutocommit toggles autocommit mode on the live session. It may be
// called at any point in the connection's life and affects only subsequent
// statements. Re-enabling autocommit clears the dirty flag.
func (c *Connection) SetAutocommit(ctx context.Context, enabled bool) error {
	if !c.alive() {
		return adapter.ErrConnectionClosed
	}
	if err := c.drv.SetAutocommit(ctx, enabled); err != nil {
		return adapter.WrapError(dbcapabilities.HANA, "set_autocommit", err)
	}
	c.autocommit = enabled
	if enabled {
		c.dirty = false
	}
	return nil
}

// IsDirty reports whether uncommitted writes exist while autocommit is off.
func (c *Connection) IsDirty() bool {
	return c.dirty
}

// MarkDirty records that a statement executed while autocommit is off. With
// autocommit on it is a no-op. This is the complete trigger set: only
// Execute and ExecuteMany mark the connection dirty.
func (c *Connection) MarkDirty() {
	if !c.autocommit {
		c.dirty = true
	}
}

// ClearDirty resets the dirty flag without touching the session.
func (c *Connection) ClearDirty() {
	c.dirty = false
}

// Commit commits the pending unit of work and clears the dirty flag.
func (c *Connection) Commit(ctx context.Context) error {
	if !c.alive() {
		return adapter.ErrConnectionClosed
	}
	if err := c.drv.Commit(ctx); err != nil {
		return adapter.WrapError(dbcapabilities.HANA, "commit", err)
	}
	c.dirty = false
	return nil
}

// Rollback discards the pending unit of work and clears the dirty flag.
func (c *Connection) Rollback(ctx context.Context) error {
	if !c.alive() {
		return adapter.ErrConnectionClosed
	}
	if err := c.drv.Rollback(ctx); err != nil {
		return adapter.WrapError(dbcapabilities.HANA, "rollback", err)
	}
	c.dirty = false
	return nil
}

// BeginTransactionBlock enters a managed transaction block by suspending
// autocommit. Blocks may be entered repeatedly; each entry needs a matching
// EndTransactionBlock.
func (c *Connection) BeginTransactionBlock(ctx context.Context) error {
	if !c.alive() {
		return adapter.ErrConnectionClosed
	}
	if err := c.drv.SetAutocommit(ctx, false); err != nil {
		return adapter.WrapError(dbcapabilities.HANA, "begin_transaction_block", err)
	}
	c.autocommit = false
	c.txDepth++
	return nil
}

// EndTransactionBlock leaves a managed transaction block. Autocommit is
// restored to true unconditionally. Leaving with the dirty flag set forces a
// rollback and returns a TransactionManagementError; leaving without a
// matching Begin is also an error.
func (c *Connection) EndTransactionBlock(ctx context.Context) error {
	if !c.alive() {
		return adapter.ErrConnectionClosed
	}

	if c.txDepth == 0 {
		c.restoreAutocommit(ctx)
		return adapter.NewTransactionManagementError("this code isn't under transaction management")
	}
	c.txDepth--

	if c.dirty {
		if err := c.Rollback(ctx); err != nil && c.logger != nil {
			c.logger.Errorf("failed to roll back pending work: %v", err)
		}
		c.restoreAutocommit(ctx)
		return adapter.NewTransactionManagementError("transaction managed block ended with pending COMMIT/ROLLBACK")
	}

	c.restoreAutocommit(ctx)
	return nil
}

func (c *Connection) restoreAutocommit(ctx context.Context) {
	if err := c.drv.SetAutocommit(ctx, true); err != nil && c.logger != nil {
		c.logger.Errorf("failed to restore autocommit: %v", err)
	}
	c.autocommit = true
	c.dirty = false
}

// SchemaEditor returns the DDL helper bound to this connection.
func (c *Connection) SchemaEditor() *SchemaEditor {
	return &SchemaEditor{conn: c}
}

// Introspection returns the catalog reader bound to this connection.
func (c *Connection) Introspection() *Introspection {
	return &Introspection{conn: c}
}

// Metadata returns the metadata reader bound to this connection.
func (c *Connection) Metadata() *MetadataOps {
	return &MetadataOps{conn: c}
}

// Savepoint always fails: SAP HANA transactions in this backend do not use
// savepoints, and nested-transaction requests must be rejected by the caller
// rather than retried here.
func (c *Connection) Savepoint(ctx context.Context, name string) error {
	return adapter.NewUnsupportedOperationError(dbcapabilities.HANA, "savepoint", "savepoints are not supported")
}
