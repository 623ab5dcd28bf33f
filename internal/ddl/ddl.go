// Package ddl renders an approximate CREATE TABLE statement from a decoded
// dictionary Table. It builds the SQL text itself, then runs it through
// TiDB's parser and AST restorer as a round-trip validation step, the same
// Parse-then-Restore idiom used to validate and re-normalize generated SQL.
package ddl

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"ibdninja/internal/dict"
	"ibdninja/internal/ibderr"
)

// Describe renders an approximate CREATE TABLE statement for t: column
// names and SQL types recovered from the dictionary, plus a PRIMARY KEY
// clause when the clustered index is a real user key. It does not attempt
// to reproduce storage options (ROW_FORMAT, key block size, …), only the
// shape a client would see.
//
// This is metadata-only: no page is read and no row value is decoded, in
// keeping with the inspector's non-goal of being a general dump tool.
func Describe(t *dict.Table) (string, error) {
	sql := buildCreateTable(t)

	p := parser.New()
	stmtNodes, _, err := p.Parse(sql, "", "")
	if err != nil {
		return "", ibderr.Wrap(ibderr.Internal, err, "generated CREATE TABLE for %q failed to parse", t.Name)
	}
	if len(stmtNodes) != 1 {
		return "", ibderr.New(ibderr.Internal, "generated CREATE TABLE for %q produced %d statements", t.Name, len(stmtNodes))
	}

	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := stmtNodes[0].Restore(ctx); err != nil {
		return "", ibderr.Wrap(ibderr.Internal, err, "restore CREATE TABLE for %q", t.Name)
	}
	return sb.String(), nil
}

func buildCreateTable(t *dict.Table) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE `%s` (\n", t.Name)

	var lines []string
	for _, c := range t.Columns {
		if c.Hidden != dict.HiddenVisible {
			continue
		}
		lines = append(lines, "  "+columnDefinition(c))
	}
	if pk := primaryKeyClause(t); pk != "" {
		lines = append(lines, "  "+pk)
	}

	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n)")
	return sb.String()
}

func columnDefinition(c *dict.Column) string {
	def := fmt.Sprintf("`%s` %s", c.Name, sqlType(c))
	if !c.Nullable {
		def += " NOT NULL"
	}
	return def
}

// sqlType renders an approximate SQL type name from the column's logical
// FieldType and its declared length/precision, good enough for a parser
// round trip; it does not attempt to recover display-width or zerofill
// attributes the dictionary payload doesn't carry here.
func sqlType(c *dict.Column) string {
	switch c.FieldType {
	case dict.TypeTiny:
		return "TINYINT"
	case dict.TypeShort:
		return "SMALLINT"
	case dict.TypeInt24:
		return "MEDIUMINT"
	case dict.TypeLong:
		return "INT"
	case dict.TypeLongLong:
		return "BIGINT"
	case dict.TypeFloat:
		return "FLOAT"
	case dict.TypeDouble:
		return "DOUBLE"
	case dict.TypeDecimal, dict.TypeNewDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", c.NumericPrecision, c.NumericScale)
	case dict.TypeVarchar:
		return fmt.Sprintf("VARCHAR(%d)", c.CharLength)
	case dict.TypeString:
		return fmt.Sprintf("CHAR(%d)", c.CharLength)
	case dict.TypeVarString:
		return fmt.Sprintf("VARCHAR(%d)", c.CharLength)
	case dict.TypeTinyBlob:
		return "TINYBLOB"
	case dict.TypeMediumBlob:
		return "MEDIUMBLOB"
	case dict.TypeLongBlob:
		return "LONGBLOB"
	case dict.TypeBlob:
		return "BLOB"
	case dict.TypeJSON:
		return "JSON"
	case dict.TypeGeometry:
		return "GEOMETRY"
	case dict.TypeEnum:
		return "ENUM('_unknown_')"
	case dict.TypeSet:
		return "SET('_unknown_')"
	case dict.TypeDate, dict.TypeNewDate:
		return "DATE"
	case dict.TypeTime, dict.TypeTime2:
		return timeType("TIME", c.DatetimePrecision)
	case dict.TypeDatetime, dict.TypeDatetime2:
		return timeType("DATETIME", c.DatetimePrecision)
	case dict.TypeTimestamp, dict.TypeTimestamp2:
		return timeType("TIMESTAMP", c.DatetimePrecision)
	case dict.TypeYear:
		return "YEAR"
	case dict.TypeBit:
		return fmt.Sprintf("BIT(%d)", c.CharLength)
	default:
		return "VARBINARY(1)"
	}
}

func timeType(name string, precision uint32) string {
	if precision == 0 {
		return name
	}
	return fmt.Sprintf("%s(%d)", name, precision)
}

// primaryKeyClause renders a PRIMARY KEY clause for the table's clustered
// index, when that index is a real user-defined key rather than the
// engine's implicit DB_ROW_ID key.
func primaryKeyClause(t *dict.Table) string {
	if t.ClustIndex == nil {
		return ""
	}
	idx := t.ClustIndex
	if len(idx.Fields) == 0 {
		return ""
	}
	if idx.Fields[0].Column.Name == "DB_ROW_ID" {
		return ""
	}

	var cols []string
	for _, f := range idx.Fields {
		if f.Hidden {
			continue
		}
		cols = append(cols, "`"+f.Column.Name+"`")
	}
	if len(cols) == 0 {
		return ""
	}
	return fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(cols, ","))
}
