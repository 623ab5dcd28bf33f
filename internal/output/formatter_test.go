package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibdninja/internal/dict"
	"ibdninja/internal/walker"
)

func TestNewFormatterDefaultsToHuman(t *testing.T) {
	f, err := NewFormatter("")
	require.NoError(t, err)
	assert.IsType(t, humanFormatter{}, f)
}

func TestNewFormatterUnknown(t *testing.T) {
	_, err := NewFormatter("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func sampleIndexStats() *walker.IndexStats {
	return &walker.IndexStats{
		Levels: []walker.LevelStats{
			{Level: 0, NPages: 2, Leftmost: 4, Stats: walker.Stats{
				NRecs: 10, NDeletedRecs: 1, ValidBytes: 400, DeletedBytes: 40,
				DroppedColBytes: 8, HeaderBytes: 60, FreeBytes: 1000,
			}},
			{Level: 1, NPages: 1, Leftmost: 3, Stats: walker.Stats{
				NRecs: 2, HeaderBytes: 10, FreeBytes: 2000,
			}},
		},
		Leaf:    walker.Stats{NRecs: 10, NDeletedRecs: 1, ValidBytes: 400, DeletedBytes: 40, DroppedColBytes: 8, HeaderBytes: 60, FreeBytes: 1000},
		NonLeaf: walker.Stats{NRecs: 2, HeaderBytes: 10, FreeBytes: 2000},
	}
}

func TestHumanFormatterFormatTableList(t *testing.T) {
	f := humanFormatter{}
	r := &TableListReport{Tables: []TableRef{
		{ID: 1, Name: "users", SchemaName: "test", Supported: true},
		{ID: 2, Name: "parts", SchemaName: "test", Supported: false, Reason: "partitioned"},
	}}
	out, err := f.FormatTableList(r)
	require.NoError(t, err)
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "unsupported: partitioned")
}

func TestHumanFormatterFormatIndex(t *testing.T) {
	f := humanFormatter{}
	r := &IndexReport{IndexName: "PRIMARY", Stats: sampleIndexStats()}
	out, err := f.FormatIndex(r)
	require.NoError(t, err)
	assert.Contains(t, out, "index PRIMARY")
	assert.Contains(t, out, "level 0 (leaf)")
	assert.Contains(t, out, "level 1 (non-leaf)")
}

func TestJSONFormatterFormatPage(t *testing.T) {
	f := jsonFormatter{}
	r := &PageReport{PageNo: 4, Stats: &walker.PageStats{PageNo: 4, Level: 0, Stats: walker.Stats{NRecs: 3}}}
	out, err := f.FormatPage(r)
	require.NoError(t, err)
	assert.Contains(t, out, `"PageNo": 4`)
	assert.Contains(t, out, `"NRecs": 3`)
}

func TestSummaryFormatterFormatTable(t *testing.T) {
	f := summaryFormatter{}
	r := &TableReport{
		TableName: "orders",
		Indexes: []IndexReport{
			{IndexName: "PRIMARY", Stats: sampleIndexStats()},
		},
	}
	out, err := f.FormatTable(r)
	require.NoError(t, err)
	assert.Contains(t, out, "Table Summary: orders")
	assert.Contains(t, out, "index PRIMARY")
	assert.Contains(t, out, "pages=3")
	assert.Contains(t, out, "recs=12")
}

func sampleDumpTable() *dict.Table {
	t := &dict.Table{Name: "orders", SchemaName: "shop", CurrentRowVersion: 1}
	t.PhysicalColumns = []*dict.Column{{Name: "id", Mtype: dict.DataInt, ColLen: 4}}
	idx := dict.NewIndex(t)
	idx.Name = "PRIMARY"
	idx.Fields = []*dict.IndexColumn{{Column: t.PhysicalColumns[0], FixedLen: 4}}
	t.Indexes = []*dict.Index{idx}
	return t
}

func TestHumanFormatterFormatDump(t *testing.T) {
	f := humanFormatter{}
	out, err := f.FormatDump(&DumpReport{TableName: "orders", Table: sampleDumpTable()})
	require.NoError(t, err)
	assert.Contains(t, out, "Table: shop.orders")
	assert.Contains(t, out, "Index: PRIMARY")
	assert.Contains(t, out, "field[0] id")
}

func TestJSONFormatterFormatDump(t *testing.T) {
	f := jsonFormatter{}
	out, err := f.FormatDump(&DumpReport{TableName: "orders", Table: sampleDumpTable()})
	require.NoError(t, err)
	assert.Contains(t, out, `"Name": "orders"`)
}

func TestSummaryFormatterFormatDump(t *testing.T) {
	f := summaryFormatter{}
	out, err := f.FormatDump(&DumpReport{TableName: "orders", Table: sampleDumpTable()})
	require.NoError(t, err)
	assert.Contains(t, out, "orders: 1 column(s), 1 index(es)")
}

func TestSummaryFormatterFormatTableList(t *testing.T) {
	f := summaryFormatter{}
	r := &TableListReport{Tables: []TableRef{
		{Name: "a", SchemaName: "s", Supported: true},
		{Name: "b", SchemaName: "s", Supported: false, Reason: "row-format"},
	}}
	out, err := f.FormatTableList(r)
	require.NoError(t, err)
	assert.Contains(t, out, "Tables: 2 (1 supported, 1 unsupported)")
	assert.Contains(t, out, "+ s.a")
	assert.Contains(t, out, "- s.b")
}
