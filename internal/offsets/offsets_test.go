package offsets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibdninja/internal/dict"
	"ibdninja/internal/page"
)

// buildSimpleIndex returns a 3-field clustered index over a table with no
// instant/row-version history: field0 fixed(4), field1 nullable var-length
// small column, field2 fixed(2).
func buildSimpleIndex() *dict.Index {
	table := &dict.Table{}
	idx := dict.NewIndex(table)
	idx.Type = dict.DictClustered | dict.DictUnique
	idx.NNullable = 1
	idx.NTotalFields = 3
	idx.NFields = 3
	f0 := &dict.IndexColumn{Column: &dict.Column{Name: "a", ColLen: 4}, FixedLen: 4}
	f1 := &dict.IndexColumn{Column: &dict.Column{Name: "b", Nullable: true, ColLen: 20}}
	f2 := &dict.IndexColumn{Column: &dict.Column{Name: "c", ColLen: 2}, FixedLen: 2}
	idx.Fields = []*dict.IndexColumn{f0, f1, f2}
	return idx
}

// layoutRecord builds a minimal compact-record buffer: 7 bytes of header
// space before rec (1 lens byte, 1 null-bitmap byte, 5 standard extra
// bytes), then the record body.
func layoutRecord(nullByte, lensByte byte, body []byte) (buf []byte, rec int) {
	rec = 7
	buf = make([]byte, rec+len(body))
	buf[rec-6] = nullByte
	buf[rec-7] = lensByte
	copy(buf[rec:], body)
	return buf, rec
}

func TestComputeLeafNoInstantNoVersion_NotNull(t *testing.T) {
	idx := buildSimpleIndex()
	body := []byte{0, 0, 0, 0, 'x', 'y', 'z', 0, 0}
	buf, rec := layoutRecord(0x00, 3, body)

	o, err := Compute(buf, rec, idx, 0)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), o.End(0))
	assert.False(t, o.IsNull(0))
	assert.Equal(t, uint32(7), o.End(1))
	assert.False(t, o.IsNull(1))
	assert.Equal(t, uint32(9), o.End(2))
	assert.Equal(t, uint32(9), o.BodyLen())
	assert.Equal(t, uint32(7), o.HeaderLen())
}

func TestComputeLeafNoInstantNoVersion_Null(t *testing.T) {
	idx := buildSimpleIndex()
	body := []byte{0, 0, 0, 0, 0, 0}
	buf, rec := layoutRecord(0x01, 3, body)

	o, err := Compute(buf, rec, idx, 0)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), o.End(0))
	assert.True(t, o.IsNull(1))
	assert.Equal(t, uint32(4), o.End(1))
	assert.Equal(t, uint32(6), o.End(2))
	assert.Equal(t, uint32(6), o.HeaderLen())
}

func TestDecodeVarLenExternal(t *testing.T) {
	c := &dict.Column{Name: "blob", Mtype: dict.DataBlob, ColLen: 0}
	require.True(t, c.IsBigCol())

	buf := make([]byte, 16)
	buf[9] = 0xC0 // two-byte form (0x80) + external bit (0x40); high length bits = 0
	buf[8] = 20   // low 8 bits of length
	lensPos := 9
	var offs uint32
	word, ext := decodeVarLen(buf, c, &lensPos, &offs)

	assert.True(t, ext)
	assert.Equal(t, uint32(20), offs)
	assert.Equal(t, uint32(7), lensPos)
	assert.NotZero(t, word)
}

func TestInstantOffsetDefaultVsNull(t *testing.T) {
	withDefault := &dict.Column{InstantDefault: true}
	withoutDefault := &dict.Column{InstantDefault: false}

	wd := instantOffset(withDefault, 5)
	wn := instantOffset(withoutDefault, 5)

	assert.True(t, (&Offsets{Field: []uint32{wd}}).IsDefault(0))
	assert.True(t, (&Offsets{Field: []uint32{wn}}).IsNull(0))
}

func TestGetInsertStateNoHistory(t *testing.T) {
	idx := buildSimpleIndex()
	buf := make([]byte, 16)
	state, v := GetInsertState(buf, 8, idx)
	assert.Equal(t, StateNoInstantNoVersion, state)
	assert.Equal(t, uint32(0), v)
}

// TestGetInsertStateSecondaryIndexIgnoresTableHistory guards against
// classifying a secondary-index record using the table's instant/row-version
// history: only the clustered index carries that history, so a secondary
// index on the same table must always come back NO_INSTANT_NO_VERSION, even
// when the record's info bits look like they carry an instant/version byte.
func TestGetInsertStateSecondaryIndexIgnoresTableHistory(t *testing.T) {
	clust := buildSimpleIndex()
	clust.RowVersions = true
	clust.InstantCols = true

	secondary := dict.NewIndex(clust.Table())
	secondary.Type = 0
	secondary.Fields = []*dict.IndexColumn{
		{Column: &dict.Column{Name: "a", ColLen: 4}, FixedLen: 4},
	}

	rec := 7
	buf := make([]byte, 16)
	buf[rec-page.RecNewInfoBits] = page.RecInfoInstantFlag

	clustState, _ := GetInsertState(buf, rec, clust)
	assert.Equal(t, StateAfterInstantAddOld, clustState)

	secState, secVersion := GetInsertState(buf, rec, secondary)
	assert.Equal(t, StateNoInstantNoVersion, secState)
	assert.Equal(t, uint32(0), secVersion)
}
