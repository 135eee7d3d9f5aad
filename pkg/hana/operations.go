package hana

import (
	"fmt"
	"strings"

	"github.com/redbco/hana-backend/pkg/adapter"
	"github.com/redbco/hana-backend/pkg/dbcapabilities"
)

// Operations holds the SQL dialect rules for SAP HANA: type templates,
// lookup operator fragments, identifier quoting, sequence naming, and the
// handful of statement builders the backend needs. It carries no connection
// state and is safe to share.
type Operations struct {
	// DataTypes maps abstract field kinds to HANA column type templates.
	// Templates use %(name)s parameters expanded by ColumnType.
	DataTypes map[string]string

	// Operators maps lookup names to SQL fragments with a %s placeholder for
	// the right-hand side.
	Operators map[string]string
}

// NewOperations returns the dialect rules for SAP HANA.
func NewOperations() *Operations {
	return &Operations{
		DataTypes: map[string]string{
			"AutoField":                 "INTEGER",
			"BigAutoField":              "BIGINT",
			"BigIntegerField":           "BIGINT",
			"BinaryField":               "BLOB",
			"BooleanField":              "TINYINT",
			"CharField":                 "NVARCHAR(%(max_length)s)",
			"DateField":                 "DATE",
			"DateTimeField":             "TIMESTAMP",
			"DecimalField":              "DECIMAL(%(max_digits)s, %(decimal_places)s)",
			"DurationField":             "BIGINT",
			"FileField":                 "NVARCHAR(%(max_length)s)",
			"FilePathField":             "NVARCHAR(%(max_length)s)",
			"FloatField":                "FLOAT",
			"GenericIPAddressField":     "NVARCHAR(39)",
			"IPAddressField":            "VARCHAR(15)",
			"ImageField":                "NVARCHAR(%(max_length)s)",
			"IntegerField":              "INTEGER",
			"NullBooleanField":          "TINYINT",
			"OneToOneField":             "INTEGER",
			"PositiveIntegerField":      "INTEGER",
			"PositiveSmallIntegerField": "SMALLINT",
			"SlugField":                 "NVARCHAR(%(max_length)s)",
			"SmallIntegerField":         "SMALLINT",
			"TextField":                 "NCLOB",
			"TimeField":                 "TIME",
			"URLField":                  "NVARCHAR(%(max_length)s)",
			"UUIDField":                 "NVARCHAR(32)",
		},
		Operators: map[string]string{
			"exact":       "= %s",
			"iexact":      "= UPPER(%s)",
			"contains":    "LIKE %s",
			"icontains":   "LIKE UPPER(%s)",
			"gt":          "> %s",
			"gte":         ">= %s",
			"lt":          "< %s",
			"lte":         "<= %s",
			"startswith":  "LIKE %s",
			"endswith":    "LIKE %s",
			"istartswith": "LIKE UPPER(%s)",
			"iendswith":   "LIKE UPPER(%s)",
		},
	}
}

// MaxNameLength returns the longest identifier HANA accepts.
func (o *Operations) MaxNameLength() int {
	return dbcapabilities.MustGet(dbcapabilities.HANA).MaxNameLength
}

// BulkBatchSize returns how many rows a bulk insert may carry per statement.
func (o *Operations) BulkBatchSize() int {
	return dbcapabilities.MustGet(dbcapabilities.HANA).BulkBatchSize
}

// QuoteName upper-cases an identifier and wraps it in double quotes. HANA
// folds unquoted identifiers to upper case, so quoting an upper-cased name
// preserves the unquoted behavior. Already-quoted names pass through.
func (o *Operations) QuoteName(name string) string {
	if strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return name
	}
	upper := strings.ToUpper(name)
	return `"` + strings.ReplaceAll(upper, `"`, `""`) + `"`
}

// ColumnType expands a DataTypes template with the given field attributes.
// Unknown field kinds return an error rather than a guessed type.
func (o *Operations) ColumnType(fieldKind string, attrs map[string]interface{}) (string, error) {
	tmpl, ok := o.DataTypes[fieldKind]
	if !ok {
		return "", fmt.Errorf("no column type for field kind %q", fieldKind)
	}
	return expandNamed(tmpl, attrs)
}

// LookupOperator returns the SQL fragment for a lookup name. Regex lookups
// are rejected: HANA has no regex match operator that fits the fragment
// shape, and emitting a LIKE instead would match the wrong rows silently.
func (o *Operations) LookupOperator(lookup string) (string, error) {
	if lookup == "regex" || lookup == "iregex" {
		return "", adapter.NewUnsupportedOperationError(dbcapabilities.HANA, lookup, "regular expression lookups are not supported")
	}
	op, ok := o.Operators[lookup]
	if !ok {
		return "", fmt.Errorf("unknown lookup %q", lookup)
	}
	return op, nil
}

// LookupCast returns the template applied to the left-hand side of a lookup.
// Case-insensitive lookups upper-case the column; everything else passes
// through.
func (o *Operations) LookupCast(lookup string) string {
	switch lookup {
	case "iexact", "icontains", "istartswith", "iendswith":
		return "UPPER(%s)"
	}
	return "%s"
}

// SeqName returns the sequence name backing an auto-increment column.
func (o *Operations) SeqName(table, column string) string {
	return table + "_" + column + "_seq"
}

// AutoincSQL returns the statements that create the sequence backing an
// auto-increment column. RESET BY re-seeds the sequence from the table's
// current maximum on database restart.
func (o *Operations) AutoincSQL(table, column string) []string {
	seq := o.SeqName(table, column)
	stmt := fmt.Sprintf(
		`CREATE SEQUENCE %s RESET BY SELECT IFNULL(MAX(%s),0) + 1 FROM %s`,
		o.QuoteName(seq), o.QuoteName(column), o.QuoteName(table),
	)
	return []string{stmt}
}

// DropSequenceSQL returns the statement that removes the sequence backing an
// auto-increment column.
func (o *Operations) DropSequenceSQL(table, column string) string {
	return "DROP SEQUENCE " + o.QuoteName(o.SeqName(table, column))
}

// LastInsertIDSQL returns the query that reads the value most recently drawn
// from an auto-increment column's sequence in this session.
func (o *Operations) LastInsertIDSQL(table, column string) string {
	return fmt.Sprintf("SELECT %s.currval FROM DUMMY", o.QuoteName(o.SeqName(table, column)))
}

// DateExtractSQL returns the expression extracting one date part from a
// column. week_day has no EXTRACT spelling and maps to DAYOFWEEK.
func (o *Operations) DateExtractSQL(lookup, fieldName string) string {
	if lookup == "week_day" {
		return fmt.Sprintf("DAYOFWEEK(%s)", fieldName)
	}
	return fmt.Sprintf("EXTRACT(%s FROM %s)", strings.ToUpper(lookup), fieldName)
}

// DateTruncSQL returns the expression truncating a date column to year,
// month, or day precision.
func (o *Operations) DateTruncSQL(lookup, fieldName string) string {
	switch lookup {
	case "year":
		return fmt.Sprintf("TO_DATE(YEAR(%s) || '-01-01', 'YYYY-MM-DD')", fieldName)
	case "month":
		return fmt.Sprintf("TO_DATE(YEAR(%s) || '-' || MONTH(%s) || '-01', 'YYYY-MM-DD')", fieldName, fieldName)
	default:
		return fmt.Sprintf("TO_DATE(%s)", fieldName)
	}
}

// SQLFlush returns the statements that empty the given tables. HANA has no
// multi-table TRUNCATE, so each table gets its own DELETE.
func (o *Operations) SQLFlush(tables []string) []string {
	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		stmts = append(stmts, "DELETE FROM "+o.QuoteName(t))
	}
	return stmts
}

// SanitizeParams lowers parameter values the driver cannot bind directly.
// Booleans become the TINYINT values 1 and 0.
func (o *Operations) SanitizeParams(params []interface{}) []interface{} {
	if params == nil {
		return nil
	}
	out := make([]interface{}, len(params))
	for i, p := range params {
		if b, ok := p.(bool); ok {
			if b {
				out[i] = 1
			} else {
				out[i] = 0
			}
			continue
		}
		out[i] = p
	}
	return out
}

// LastExecutedQuery renders a statement with its parameters substituted, for
// diagnostics only. Each ? marker is replaced in order; the result is not
// valid SQL for re-execution.
func (o *Operations) LastExecutedQuery(query string, params []interface{}) string {
	if len(params) == 0 {
		return query
	}
	var b strings.Builder
	idx := 0
	for _, r := range query {
		if r == '?' && idx < len(params) {
			b.WriteString(renderParam(params[idx]))
			idx++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func renderParam(p interface{}) string {
	switch v := p.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// expandNamed expands %(name)s parameters in a template from attrs. A
// template parameter with no matching attribute is an error.
func expandNamed(tmpl string, attrs map[string]interface{}) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); {
		j := strings.Index(tmpl[i:], "%(")
		if j < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		b.WriteString(tmpl[i : i+j])
		rest := tmpl[i+j+2:]
		k := strings.Index(rest, ")s")
		if k < 0 {
			return "", fmt.Errorf("malformed type template %q", tmpl)
		}
		name := rest[:k]
		val, ok := attrs[name]
		if !ok {
			return "", fmt.Errorf("type template %q needs attribute %q", tmpl, name)
		}
		fmt.Fprintf(&b, "%v", val)
		i += j + 2 + k + 2
	}
	return b.String(), nil
}
