package hana

import (
	"context"
	"fmt"
	"strings"

	"github.com/redbco/hana-backend/pkg/adapter"
)

// ColumnDef describes one column of a table to create or alter. FieldKind
// selects the type template from Operations.DataTypes; TypeAttrs fills the
// template's parameters (max_length, max_digits, decimal_places).
type ColumnDef struct {
	Name       string
	FieldKind  string
	TypeAttrs  map[string]interface{}
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	Default    *string
	AutoInc    bool
}

// TableDef describes a table to create. Store selects the HANA engine; the
// zero value means column store.
type TableDef struct {
	Name    string
	Columns []ColumnDef
	Store   TableStore
}

// TableStore selects the storage engine for a table.
type TableStore int

const (
	// ColumnStore is the default HANA engine.
	ColumnStore TableStore = iota
	// RowStore keeps the table row-organized.
	RowStore
)

// SchemaEditor builds and runs DDL against one connection. DDL in HANA
// autocommits regardless of session state, so the editor never touches the
// transaction machinery.
type SchemaEditor struct {
	conn *Connection
}

// CreateTableSQL returns the statements that create the table and the
// sequences backing its auto-increment columns.
func (e *SchemaEditor) CreateTableSQL(def TableDef) ([]string, error) {
	ops := e.conn.ops
	if len(def.Columns) == 0 {
		return nil, adapter.ErrInvalidData
	}

	cols := make([]string, 0, len(def.Columns))
	var pks []string
	for _, c := range def.Columns {
		colType, err := ops.ColumnType(c.FieldKind, c.TypeAttrs)
		if err != nil {
			return nil, err
		}
		parts := []string{ops.QuoteName(c.Name), colType}
		if !c.Nullable {
			parts = append(parts, "NOT NULL")
		}
		if c.Default != nil {
			parts = append(parts, "DEFAULT "+*c.Default)
		}
		if c.Unique && !c.PrimaryKey {
			parts = append(parts, "UNIQUE")
		}
		cols = append(cols, strings.Join(parts, " "))
		if c.PrimaryKey {
			pks = append(pks, ops.QuoteName(c.Name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, "PRIMARY KEY ("+strings.Join(pks, ", ")+")")
	}

	store := "COLUMN"
	if def.Store == RowStore {
		store = "ROW"
	}
	stmts := []string{fmt.Sprintf("CREATE %s TABLE %s (%s)", store, ops.QuoteName(def.Name), strings.Join(cols, ", "))}
	for _, c := range def.Columns {
		if c.AutoInc {
			stmts = append(stmts, ops.AutoincSQL(def.Name, c.Name)...)
		}
	}
	return stmts, nil
}

// CreateTable creates the table and its auto-increment sequences.
func (e *SchemaEditor) CreateTable(ctx context.Context, def TableDef) error {
	stmts, err := e.CreateTableSQL(def)
	if err != nil {
		return err
	}
	return e.runAll(ctx, stmts)
}

// DropTable removes the table. Sequences backing auto-increment columns must
// be dropped separately since the catalog does not tie them to the table.
func (e *SchemaEditor) DropTable(ctx context.Context, table string) error {
	return e.run(ctx, "DROP TABLE "+e.conn.ops.QuoteName(table))
}

// DropSequence removes the sequence backing an auto-increment column.
func (e *SchemaEditor) DropSequence(ctx context.Context, table, column string) error {
	return e.run(ctx, e.conn.ops.DropSequenceSQL(table, column))
}

// AddColumn appends a column to an existing table.
func (e *SchemaEditor) AddColumn(ctx context.Context, table string, col ColumnDef) error {
	ops := e.conn.ops
	colType, err := ops.ColumnType(col.FieldKind, col.TypeAttrs)
	if err != nil {
		return err
	}
	parts := []string{ops.QuoteName(col.Name), colType}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != nil {
		parts = append(parts, "DEFAULT "+*col.Default)
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD (%s)", ops.QuoteName(table), strings.Join(parts, " "))
	return e.run(ctx, stmt)
}

// DropColumn removes a column from an existing table.
func (e *SchemaEditor) DropColumn(ctx context.Context, table, column string) error {
	ops := e.conn.ops
	return e.run(ctx, fmt.Sprintf("ALTER TABLE %s DROP (%s)", ops.QuoteName(table), ops.QuoteName(column)))
}

// CreateIndex creates an index over the given columns.
func (e *SchemaEditor) CreateIndex(ctx context.Context, table, name string, columns []string, unique bool) error {
	ops := e.conn.ops
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ops.QuoteName(c)
	}
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	stmt := fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, ops.QuoteName(name), ops.QuoteName(table), strings.Join(quoted, ", "))
	return e.run(ctx, stmt)
}

// DropIndex removes an index.
func (e *SchemaEditor) DropIndex(ctx context.Context, name string) error {
	return e.run(ctx, "DROP INDEX "+e.conn.ops.QuoteName(name))
}

// Flush empties the given tables, one DELETE per table.
func (e *SchemaEditor) Flush(ctx context.Context, tables []string) error {
	return e.runAll(ctx, e.conn.ops.SQLFlush(tables))
}

func (e *SchemaEditor) run(ctx context.Context, stmt string) error {
	return e.conn.WithCursor(ctx, func(cur *Cursor) error {
		_, err := cur.Execute(ctx, stmt)
		return err
	})
}

func (e *SchemaEditor) runAll(ctx context.Context, stmts []string) error {
	return e.conn.WithCursor(ctx, func(cur *Cursor) error {
		for _, stmt := range stmts {
			if _, err := cur.Execute(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
