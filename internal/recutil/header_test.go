package recutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibdninja/internal/ibderr"
	"ibdninja/internal/page"
)

func putBE2(buf []byte, off int, v uint32) {
	buf[off] = byte(v >> 8)
	buf[off+1] = byte(v)
}

// buildOneRecordPage lays out a minimal compact-format page holding one
// ordinary record between infimum and supremum, the way walker_test.go
// does for its own fixtures.
func buildOneRecordPage(t *testing.T) (buf []byte, recOrigin int) {
	t.Helper()
	buf = make([]byte, 16*1024)

	infimum := page.PageNewInfimum
	copy(buf[infimum:], "infimum\x00")
	supremum := page.PageNewSupremum
	copy(buf[supremum:], "supremum")
	buf[supremum-page.RecNewStatus] = page.RecStatusSupremum

	recOrigin = supremum + 8 + 10
	buf[recOrigin-page.RecNewStatus] = page.RecStatusOrdinary

	putBE2(buf, infimum-page.RecNextOffset, uint32(int16(recOrigin-infimum)))
	putBE2(buf, recOrigin-page.RecNextOffset, uint32(int16(supremum-recOrigin)))

	return buf, recOrigin
}

func TestFirstUserRec(t *testing.T) {
	buf, recOrigin := buildOneRecordPage(t)

	rec, err := FirstUserRec(buf)
	require.NoError(t, err)
	assert.Equal(t, recOrigin, rec)

	next, err := NextUserRec(buf, rec)
	require.NoError(t, err)
	assert.Equal(t, -1, next)
}

func TestFirstUserRec_CorruptInfimum(t *testing.T) {
	buf, _ := buildOneRecordPage(t)
	buf[page.PageNewInfimum] = 'X'

	_, err := FirstUserRec(buf)
	require.Error(t, err)
	assert.Equal(t, ibderr.CorruptPage, ibderr.KindOf(err))
}

func TestNextUserRec_CorruptSupremum(t *testing.T) {
	buf, recOrigin := buildOneRecordPage(t)
	buf[page.PageNewSupremum] = 'X'

	_, err := NextUserRec(buf, recOrigin)
	require.Error(t, err)
	assert.Equal(t, ibderr.CorruptPage, ibderr.KindOf(err))
}

func TestNextUserRec_ZeroNextPointerIsCorrupt(t *testing.T) {
	buf, recOrigin := buildOneRecordPage(t)
	putBE2(buf, recOrigin-page.RecNextOffset, 0)

	_, err := NextUserRec(buf, recOrigin)
	require.Error(t, err)
	assert.Equal(t, ibderr.CorruptPage, ibderr.KindOf(err))
}

func TestEmptyPage_FirstUserRecIsMinusOne(t *testing.T) {
	buf := make([]byte, 16*1024)
	infimum := page.PageNewInfimum
	copy(buf[infimum:], "infimum\x00")
	supremum := page.PageNewSupremum
	copy(buf[supremum:], "supremum")
	buf[supremum-page.RecNewStatus] = page.RecStatusSupremum
	putBE2(buf, infimum-page.RecNextOffset, uint32(int16(supremum-infimum)))

	rec, err := FirstUserRec(buf)
	require.NoError(t, err)
	assert.Equal(t, -1, rec)
}
