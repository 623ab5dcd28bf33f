package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibdninja/internal/dict"
)

func simpleTable() *dict.Table {
	return &dict.Table{
		Name: "orders",
		Columns: []*dict.Column{
			{Name: "id", FieldType: dict.TypeLong, Nullable: false},
			{Name: "customer", FieldType: dict.TypeVarchar, CharLength: 64, Nullable: false},
			{Name: "note", FieldType: dict.TypeBlob, Nullable: true},
			{Name: "deleted_flag", FieldType: dict.TypeTiny, Nullable: false, Hidden: dict.HiddenByEngine},
		},
	}
}

func TestDescribeRendersColumns(t *testing.T) {
	tbl := simpleTable()
	sql, err := Describe(tbl)
	require.NoError(t, err)

	assert.Contains(t, sql, "CREATE TABLE")
	assert.Contains(t, sql, "`orders`")
	assert.Contains(t, sql, "`id`")
	assert.Contains(t, sql, "INT")
	assert.Contains(t, sql, "`customer`")
	assert.Contains(t, sql, "VARCHAR(64)")
	assert.NotContains(t, sql, "`deleted_flag`", "hidden engine columns must not appear in the rendered DDL")
}

func TestDescribeOmitsPrimaryKeyForImplicitRowID(t *testing.T) {
	tbl := simpleTable()
	rowIDCol := &dict.Column{Name: "DB_ROW_ID", FieldType: dict.TypeLongLong, Hidden: dict.HiddenByEngine}
	tbl.ClustIndex = &dict.Index{
		Fields: []*dict.IndexColumn{{Column: rowIDCol}},
	}

	sql, err := Describe(tbl)
	require.NoError(t, err)
	assert.NotContains(t, sql, "PRIMARY KEY")
}

func TestDescribeRendersPrimaryKeyForUserDefinedClusterKey(t *testing.T) {
	tbl := simpleTable()
	tbl.ClustIndex = &dict.Index{
		Fields: []*dict.IndexColumn{{Column: tbl.Columns[0]}},
	}

	sql, err := Describe(tbl)
	require.NoError(t, err)
	assert.Contains(t, sql, "PRIMARY KEY(`id`)")
}

func TestSQLTypeMapping(t *testing.T) {
	tests := []struct {
		name string
		col  *dict.Column
		want string
	}{
		{"decimal", &dict.Column{FieldType: dict.TypeNewDecimal, NumericPrecision: 10, NumericScale: 2}, "DECIMAL(10,2)"},
		{"json", &dict.Column{FieldType: dict.TypeJSON}, "JSON"},
		{"datetime with fsp", &dict.Column{FieldType: dict.TypeDatetime2, DatetimePrecision: 3}, "DATETIME(3)"},
		{"datetime no fsp", &dict.Column{FieldType: dict.TypeDatetime2}, "DATETIME"},
		{"bit", &dict.Column{FieldType: dict.TypeBit, CharLength: 8}, "BIT(8)"},
		{"unknown falls back to varbinary", &dict.Column{FieldType: dict.TypeGeometry + 100}, "VARBINARY(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlType(tt.col))
		})
	}
}
