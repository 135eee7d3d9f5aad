package hana

import (
	"context"
	"fmt"
)

// MetadataOps reads server- and schema-level facts from the SYS views.
type MetadataOps struct {
	conn *Connection
}

// GetVersion returns the database server version string.
func (m *MetadataOps) GetVersion(ctx context.Context) (string, error) {
	row, err := m.queryOne(ctx, "SELECT VERSION FROM SYS.M_DATABASE")
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", fmt.Errorf("version query returned no rows")
	}
	return asString(row[0]), nil
}

// GetDatabaseSize returns the total size of the data volumes in bytes.
func (m *MetadataOps) GetDatabaseSize(ctx context.Context) (int64, error) {
	row, err := m.queryOne(ctx, "SELECT SUM(USED_SIZE) FROM SYS.M_VOLUME_FILES WHERE FILE_TYPE = 'DATA'")
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return int64(asInt(row[0])), nil
}

// GetTableCount returns the number of tables in the connection's schema.
func (m *MetadataOps) GetTableCount(ctx context.Context) (int, error) {
	row, err := m.queryOne(ctx, "SELECT COUNT(*) FROM SYS.TABLES WHERE SCHEMA_NAME = %s", m.conn.schema)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return asInt(row[0]), nil
}

// GetCurrentSchema returns the schema the session is operating in, as seen by
// the server rather than as configured.
func (m *MetadataOps) GetCurrentSchema(ctx context.Context) (string, error) {
	row, err := m.queryOne(ctx, "SELECT CURRENT_SCHEMA FROM DUMMY")
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", fmt.Errorf("schema query returned no rows")
	}
	return asString(row[0]), nil
}

func (m *MetadataOps) queryOne(ctx context.Context, q string, params ...interface{}) ([]interface{}, error) {
	cur, err := m.conn.Cursor()
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if _, err := cur.Execute(ctx, q, params...); err != nil {
		return nil, err
	}
	return cur.FetchOne()
}

// LastInsertID returns the value most recently drawn in this session from the
// sequence backing an auto-increment column.
func (c *Connection) LastInsertID(ctx context.Context, table, column string) (int64, error) {
	cur, err := c.Cursor()
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	if _, err := cur.Execute(ctx, c.ops.LastInsertIDSQL(table, column)); err != nil {
		return 0, err
	}
	row, err := cur.FetchOne()
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, fmt.Errorf("sequence for %s.%s has no current value in this session", table, column)
	}
	return int64(asInt(row[0])), nil
}
