package hana

import (
	"context"
	"fmt"
	"strings"
)

// TableInfo is one table or view as reported by the catalog.
type TableInfo struct {
	Name string
	// Kind is "t" for tables and "v" for views.
	Kind string
}

// FieldInfo is one column as reported by the catalog.
type FieldInfo struct {
	Name     string
	TypeName string
	Length   int
	Scale    int
	Nullable bool
	Default  string
}

// IndexInfo is one index as reported by the catalog.
type IndexInfo struct {
	Name    string
	Columns []string
	Unique  bool
	Primary bool
}

// ConstraintInfo is one referential constraint as reported by the catalog.
type ConstraintInfo struct {
	Name             string
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// Introspection reads the SYS catalog views for the connection's schema.
// Statements are written with the backend's positional placeholders and go
// through the regular cursor path.
type Introspection struct {
	conn *Connection
}

// GetTableList returns all tables and views in the connection's schema.
func (in *Introspection) GetTableList(ctx context.Context) ([]TableInfo, error) {
	const q = `SELECT TABLE_NAME, 't' FROM SYS.TABLES WHERE SCHEMA_NAME = %s
UNION SELECT VIEW_NAME, 'v' FROM SYS.VIEWS WHERE SCHEMA_NAME = %s
ORDER BY 1`

	rows, err := in.query(ctx, q, in.conn.schema, in.conn.schema)
	if err != nil {
		return nil, err
	}
	out := make([]TableInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, TableInfo{Name: asString(r[0]), Kind: asString(r[1])})
	}
	return out, nil
}

// GetTableDescription returns the columns of one table in catalog order.
func (in *Introspection) GetTableDescription(ctx context.Context, table string) ([]FieldInfo, error) {
	const q = `SELECT COLUMN_NAME, DATA_TYPE_NAME, LENGTH, SCALE, IS_NULLABLE, DEFAULT_VALUE
FROM SYS.TABLE_COLUMNS
WHERE SCHEMA_NAME = %s AND TABLE_NAME = %s
ORDER BY POSITION`

	rows, err := in.query(ctx, q, in.conn.schema, strings.ToUpper(table))
	if err != nil {
		return nil, err
	}
	out := make([]FieldInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, FieldInfo{
			Name:     asString(r[0]),
			TypeName: asString(r[1]),
			Length:   asInt(r[2]),
			Scale:    asInt(r[3]),
			Nullable: asString(r[4]) == "TRUE",
			Default:  asString(r[5]),
		})
	}
	return out, nil
}

// GetRelations returns the foreign-key relations of one table, keyed by the
// referencing column.
func (in *Introspection) GetRelations(ctx context.Context, table string) (map[string]ConstraintInfo, error) {
	const q = `SELECT CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
FROM SYS.REFERENTIAL_CONSTRAINTS
WHERE SCHEMA_NAME = %s AND TABLE_NAME = %s`

	rows, err := in.query(ctx, q, in.conn.schema, strings.ToUpper(table))
	if err != nil {
		return nil, err
	}
	out := make(map[string]ConstraintInfo, len(rows))
	for _, r := range rows {
		ci := ConstraintInfo{
			Name:             asString(r[0]),
			Column:           asString(r[1]),
			ReferencedTable:  asString(r[2]),
			ReferencedColumn: asString(r[3]),
		}
		out[ci.Column] = ci
	}
	return out, nil
}

// GetKeyColumns returns (column, referenced table, referenced column) triples
// for the table's foreign keys.
func (in *Introspection) GetKeyColumns(ctx context.Context, table string) ([][3]string, error) {
	rels, err := in.GetRelations(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([][3]string, 0, len(rels))
	for _, ci := range rels {
		out = append(out, [3]string{ci.Column, ci.ReferencedTable, ci.ReferencedColumn})
	}
	return out, nil
}

// GetIndexes returns the indexes of one table with their column lists.
func (in *Introspection) GetIndexes(ctx context.Context, table string) ([]IndexInfo, error) {
	const q = `SELECT I.INDEX_NAME, C.COLUMN_NAME, I.CONSTRAINT
FROM SYS.INDEXES I
JOIN SYS.INDEX_COLUMNS C
  ON I.SCHEMA_NAME = C.SCHEMA_NAME AND I.INDEX_NAME = C.INDEX_NAME AND I.TABLE_NAME = C.TABLE_NAME
WHERE I.SCHEMA_NAME = %s AND I.TABLE_NAME = %s
ORDER BY I.INDEX_NAME, C.POSITION`

	rows, err := in.query(ctx, q, in.conn.schema, strings.ToUpper(table))
	if err != nil {
		return nil, err
	}

	var out []IndexInfo
	byName := map[string]int{}
	for _, r := range rows {
		name := asString(r[0])
		idx, seen := byName[name]
		if !seen {
			constraint := asString(r[2])
			out = append(out, IndexInfo{
				Name:    name,
				Unique:  constraint == "UNIQUE" || constraint == "PRIMARY KEY",
				Primary: constraint == "PRIMARY KEY",
			})
			idx = len(out) - 1
			byName[name] = idx
		}
		out[idx].Columns = append(out[idx].Columns, asString(r[1]))
	}
	return out, nil
}

// GetPrimaryKeyColumn returns the single primary-key column of a table, or
// the empty string when the table has none.
func (in *Introspection) GetPrimaryKeyColumn(ctx context.Context, table string) (string, error) {
	indexes, err := in.GetIndexes(ctx, table)
	if err != nil {
		return "", err
	}
	for _, idx := range indexes {
		if idx.Primary && len(idx.Columns) == 1 {
			return idx.Columns[0], nil
		}
	}
	return "", nil
}

// TableExists reports whether a table of the given name exists in the schema.
func (in *Introspection) TableExists(ctx context.Context, table string) (bool, error) {
	const q = `SELECT COUNT(*) FROM SYS.TABLES WHERE SCHEMA_NAME = %s AND TABLE_NAME = %s`
	rows, err := in.query(ctx, q, in.conn.schema, strings.ToUpper(table))
	if err != nil {
		return false, err
	}
	return len(rows) == 1 && asInt(rows[0][0]) > 0, nil
}

func (in *Introspection) query(ctx context.Context, q string, params ...interface{}) ([][]interface{}, error) {
	cur, err := in.conn.Cursor()
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if _, err := cur.Execute(ctx, q, params...); err != nil {
		return nil, err
	}
	return cur.FetchAll()
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
