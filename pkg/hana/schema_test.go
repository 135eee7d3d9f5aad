package hana

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateTableSQL(t *testing.T) {
	conn, _ := connectFake(t)
	defer conn.Close()

	def := TableDef{
		Name: "orders",
		Columns: []ColumnDef{
			{Name: "id", FieldKind: "AutoField", PrimaryKey: true, AutoInc: true},
			{Name: "ref", FieldKind: "CharField", TypeAttrs: map[string]interface{}{"max_length": 40}, Unique: true},
			{Name: "note", FieldKind: "TextField", Nullable: true},
			{Name: "qty", FieldKind: "IntegerField", Default: strPtr("1")},
		},
	}

	stmts, err := conn.SchemaEditor().CreateTableSQL(def)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	assert.Equal(t,
		`CREATE COLUMN TABLE "ORDERS" (`+
			`"ID" INTEGER NOT NULL, `+
			`"REF" NVARCHAR(40) NOT NULL UNIQUE, `+
			`"NOTE" NCLOB, `+
			`"QTY" INTEGER NOT NULL DEFAULT 1, `+
			`PRIMARY KEY ("ID"))`,
		stmts[0])
	assert.Equal(t,
		`CREATE SEQUENCE "ORDERS_ID_SEQ" RESET BY SELECT IFNULL(MAX("ID"),0) + 1 FROM "ORDERS"`,
		stmts[1])
}

func TestCreateTableSQLRowStore(t *testing.T) {
	conn, _ := connectFake(t)
	defer conn.Close()

	def := TableDef{
		Name:    "settings",
		Store:   RowStore,
		Columns: []ColumnDef{{Name: "k", FieldKind: "CharField", TypeAttrs: map[string]interface{}{"max_length": 20}}},
	}
	stmts, err := conn.SchemaEditor().CreateTableSQL(def)
	require.NoError(t, err)
	assert.Contains(t, stmts[0], "CREATE ROW TABLE")
}

func TestCreateTableSQLRejectsEmpty(t *testing.T) {
	conn, _ := connectFake(t)
	defer conn.Close()

	_, err := conn.SchemaEditor().CreateTableSQL(TableDef{Name: "empty"})
	assert.Error(t, err)
}

func TestSchemaEditorStatements(t *testing.T) {
	conn, drv := connectFake(t)
	defer conn.Close()
	ctx := context.Background()
	ed := conn.SchemaEditor()

	require.NoError(t, ed.DropTable(ctx, "orders"))
	assert.Equal(t, `DROP TABLE "ORDERS"`, drv.conn.lastExecuted().query)

	require.NoError(t, ed.DropSequence(ctx, "orders", "id"))
	assert.Equal(t, `DROP SEQUENCE "ORDERS_ID_SEQ"`, drv.conn.lastExecuted().query)

	col := ColumnDef{Name: "email", FieldKind: "CharField", TypeAttrs: map[string]interface{}{"max_length": 120}, Nullable: true}
	require.NoError(t, ed.AddColumn(ctx, "customers", col))
	assert.Equal(t, `ALTER TABLE "CUSTOMERS" ADD ("EMAIL" NVARCHAR(120))`, drv.conn.lastExecuted().query)

	require.NoError(t, ed.DropColumn(ctx, "customers", "email"))
	assert.Equal(t, `ALTER TABLE "CUSTOMERS" DROP ("EMAIL")`, drv.conn.lastExecuted().query)

	require.NoError(t, ed.CreateIndex(ctx, "orders", "idx_ref", []string{"ref"}, true))
	assert.Equal(t, `CREATE UNIQUE INDEX "IDX_REF" ON "ORDERS" ("REF")`, drv.conn.lastExecuted().query)

	require.NoError(t, ed.DropIndex(ctx, "idx_ref"))
	assert.Equal(t, `DROP INDEX "IDX_REF"`, drv.conn.lastExecuted().query)
}

func TestFlushDeletesEachTable(t *testing.T) {
	conn, drv := connectFake(t)
	defer conn.Close()
	ctx := context.Background()

	before := len(drv.conn.executed)
	require.NoError(t, conn.SchemaEditor().Flush(ctx, []string{"a", "b"}))

	executed := drv.conn.executed[before:]
	require.Len(t, executed, 2)
	assert.Equal(t, `DELETE FROM "A"`, executed[0].query)
	assert.Equal(t, `DELETE FROM "B"`, executed[1].query)
}
