package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/redbco/hana-backend/pkg/hana"
)

// pingCmd checks connectivity and prints the server version
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(ctx context.Context, conn *hana.Connection) error {
			version, err := conn.Metadata().GetVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("OK: %s schema=%s version=%s\n", conn.Config().Host, conn.Schema(), version)
			return nil
		})
	},
}

// execCmd runs one SQL statement and prints its result
var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "Execute a SQL statement",
	Long: "Execute a SQL statement against the configured schema. Statements may use %s " +
		"positional placeholders with values passed after the statement.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(ctx context.Context, conn *hana.Connection) error {
			params := make([]interface{}, 0, len(args)-1)
			for _, a := range args[1:] {
				params = append(params, a)
			}

			cur, err := conn.Cursor()
			if err != nil {
				return err
			}
			defer cur.Close()

			affected, err := cur.Execute(ctx, args[0], params...)
			if err != nil {
				return err
			}

			cols, err := cur.Columns()
			if err != nil {
				return err
			}
			if len(cols) == 0 {
				fmt.Printf("%d row(s) affected\n", affected)
				return nil
			}
			rows, err := cur.FetchAll()
			if err != nil {
				return err
			}
			printTable(cols, rows)
			return nil
		})
	},
}

// tablesCmd lists the tables and views of the schema
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables and views in the schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(ctx context.Context, conn *hana.Connection) error {
			tables, err := conn.Introspection().GetTableList(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND")
			for _, t := range tables {
				kind := "table"
				if t.Kind == "v" {
					kind = "view"
				}
				fmt.Fprintf(w, "%s\t%s\n", t.Name, kind)
			}
			return w.Flush()
		})
	},
}

// describeCmd prints the columns, indexes, and relations of one table
var describeCmd = &cobra.Command{
	Use:   "describe <table>",
	Short: "Show the columns, indexes, and relations of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(func(ctx context.Context, conn *hana.Connection) error {
			intro := conn.Introspection()
			table := args[0]

			fields, err := intro.GetTableDescription(ctx, table)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tTYPE\tNULLABLE\tDEFAULT")
			for _, f := range fields {
				typ := f.TypeName
				if f.Length > 0 {
					typ = fmt.Sprintf("%s(%d)", f.TypeName, f.Length)
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", f.Name, typ, f.Nullable, f.Default)
			}
			w.Flush()

			indexes, err := intro.GetIndexes(ctx, table)
			if err != nil {
				return err
			}
			for _, idx := range indexes {
				kind := "index"
				if idx.Primary {
					kind = "primary key"
				} else if idx.Unique {
					kind = "unique index"
				}
				fmt.Printf("%s: %s (%s)\n", kind, idx.Name, strings.Join(idx.Columns, ", "))
			}

			relations, err := intro.GetRelations(ctx, table)
			if err != nil {
				return err
			}
			for col, rel := range relations {
				fmt.Printf("foreign key: %s -> %s.%s (%s)\n", col, rel.ReferencedTable, rel.ReferencedColumn, rel.Name)
			}
			return nil
		})
	},
}

// versionCmd prints the server version and build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show client and server version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printVersionInfo()
		return withConnection(func(ctx context.Context, conn *hana.Connection) error {
			version, err := conn.Metadata().GetVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Server: SAP HANA %s\n", version)
			return nil
		})
	},
}

func printTable(cols []string, rows [][]interface{}) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(cols, "\t"))
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				parts[i] = "NULL"
				continue
			}
			if b, ok := v.([]byte); ok {
				parts[i] = string(b)
				continue
			}
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(w, strings.Join(parts, "\t"))
	}
	w.Flush()
	fmt.Printf("(%d rows)\n", len(rows))
}
