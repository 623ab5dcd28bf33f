package walker

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibdninja/internal/dict"
	"ibdninja/internal/page"
	"ibdninja/internal/tablespace"
)

const testPageSize = 16 * 1024

func putBE2(buf []byte, off int, v uint32) {
	buf[off] = byte(v >> 8)
	buf[off+1] = byte(v)
}

func putBE4(buf []byte, off int, v uint32) {
	buf[off] = byte(v >> 24)
	buf[off+1] = byte(v >> 16)
	buf[off+2] = byte(v >> 8)
	buf[off+3] = byte(v)
}

func putBE8(buf []byte, off int, v uint64) {
	putBE4(buf, off, uint32(v>>32))
	putBE4(buf, off+4, uint32(v))
}

// writeIndexPageRecord lays out one compact-format leaf record with a
// single 4-byte fixed field between the built-in infimum and supremum
// pseudo-records, on an otherwise empty INDEX page. It returns the
// record's origin.
func writeIndexPageRecord(buf []byte, base int, indexID uint64, body []byte, deleted bool) int {
	putBE2(buf, base+page.FilPageType, page.FilPageIndex)
	putBE4(buf, base+page.FilPagePrev, page.PageEnd)
	putBE4(buf, base+page.FilPageNext, page.PageEnd)

	hdr := base + page.FilPageData
	putBE2(buf, hdr+page.PageHeapTop, 200)
	putBE2(buf, hdr+page.PageLevel, 0)
	putBE8(buf, hdr+page.PageIndexID, indexID)
	putBE2(buf, hdr+page.PageNRecs, 1)

	infimum := base + page.PageNewInfimum
	copy(buf[infimum:], "infimum\x00")
	supremum := base + page.PageNewSupremum
	copy(buf[supremum:], "supremum")
	// supremum's own status byte: low 3 bits = RecStatusSupremum.
	buf[supremum-3] = page.RecStatusSupremum

	recOrigin := supremum + 8 + 10
	info := byte(0)
	if deleted {
		info = page.RecInfoDeletedFlag
	}
	buf[recOrigin-5] = info
	buf[recOrigin-3] = page.RecStatusOrdinary

	// infimum -> recOrigin
	putBE2(buf, infimum-2, uint32(int16(recOrigin-infimum)))
	// recOrigin -> supremum
	putBE2(buf, recOrigin-2, uint32(int16(supremum-recOrigin)))

	copy(buf[recOrigin:], body)

	// trailer LSN must echo the header LSN's low 32 bits.
	putBE4(buf, base+page.FilPageLSN, 0)
	putBE4(buf, base+page.FilPageLSN+4, 0xAABBCCDD)
	putBE4(buf, base+testPageSize-4, 0xAABBCCDD)

	return recOrigin
}

// openSyntheticTablespace builds a 2-page .ibd file: an FSP header page
// with the default (uncompressed, 16K) flags, and one caller-supplied
// INDEX page.
func openSyntheticTablespace(t *testing.T, page1 []byte) *tablespace.Tablespace {
	t.Helper()
	buf := make([]byte, 2*testPageSize)
	copy(buf[testPageSize:], page1)

	f, err := os.CreateTemp(t.TempDir(), "synthetic-*.ibd")
	require.NoError(t, err)
	_, err = f.Write(buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ts, err := tablespace.Open(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ts.Close() })
	return ts
}

func buildFixedColumnIndex(indexID uint64) *dict.Index {
	table := &dict.Table{}
	idx := dict.NewIndex(table)
	idx.ID = indexID
	idx.RootPage = 1
	idx.Type = dict.DictClustered | dict.DictUnique
	idx.NTotalFields = 1
	idx.NFields = 1
	idx.Fields = []*dict.IndexColumn{
		{Column: &dict.Column{Name: "a", ColLen: 4}, FixedLen: 4},
	}
	return idx
}

func TestParsePageValidRecord(t *testing.T) {
	page1 := make([]byte, testPageSize)
	writeIndexPageRecord(page1, 0, 7, []byte{1, 2, 3, 4}, false)

	ts := openSyntheticTablespace(t, page1)
	idx := buildFixedColumnIndex(7)

	ps, recs, err := ParsePage(ts, idx, 1, true)
	require.NoError(t, err)

	assert.EqualValues(t, 1, ps.NRecs)
	assert.EqualValues(t, 0, ps.NDeletedRecs)
	assert.EqualValues(t, 5, ps.HeaderBytes)
	assert.EqualValues(t, 4, ps.ValidBytes)
	assert.EqualValues(t, 0, ps.DroppedColBytes)
	assert.EqualValues(t, testPageSize-200, ps.FreeBytes)

	require.Len(t, recs, 1)
	assert.False(t, recs[0].Deleted)
	require.Len(t, recs[0].Fields, 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, recs[0].Fields[0].Raw)
}

func TestParsePageDeletedRecord(t *testing.T) {
	page1 := make([]byte, testPageSize)
	writeIndexPageRecord(page1, 0, 7, []byte{9, 9, 9, 9}, true)

	ts := openSyntheticTablespace(t, page1)
	idx := buildFixedColumnIndex(7)

	ps, _, err := ParsePage(ts, idx, 1, false)
	require.NoError(t, err)

	assert.EqualValues(t, 1, ps.NDeletedRecs)
	assert.EqualValues(t, 0, ps.ValidBytes)
	assert.EqualValues(t, 4, ps.DeletedBytes)
}

func TestParsePageIndexIDMismatch(t *testing.T) {
	page1 := make([]byte, testPageSize)
	writeIndexPageRecord(page1, 0, 7, []byte{1, 2, 3, 4}, false)

	ts := openSyntheticTablespace(t, page1)
	idx := buildFixedColumnIndex(99)

	_, _, err := ParsePage(ts, idx, 1, false)
	require.Error(t, err)
}
