// Package recutil holds the small set of record-header primitives shared
// by the SDI reader, the record offset engine, and the page walker: they
// all need to step from one compact-format record to the next and read its
// status/info bits, regardless of what the record's body means.
package recutil

import (
	"ibdninja/internal/binutil"
	"ibdninja/internal/ibderr"
	"ibdninja/internal/page"
)

// Status returns the 3-bit record status (ordinary/node-ptr/infimum/supremum)
// stored in the low bits of the byte at rec-page.RecNewStatus.
func Status(buf []byte, rec int) uint32 {
	return binutil.BitsFrom1B(buf[rec-page.RecNewStatus:], 0x07, 0)
}

// InfoBits returns the high nibble of the byte at rec-page.RecNewInfoBits,
// carrying the DELETED/VERSION/INSTANT flags.
func InfoBits(buf []byte, rec int) uint32 {
	return binutil.BitsFrom1B(buf[rec-page.RecNewInfoBits:], 0xF0, 0)
}

// IsDeleted reports whether the record's DELETED flag is set.
func IsDeleted(buf []byte, rec int) bool {
	return InfoBits(buf, rec)&page.RecInfoDeletedFlag != 0
}

// NextOffset returns the 2-byte self-relative pointer to the next record
// in logical order, stored immediately before the record origin.
func NextOffset(buf []byte, rec int) int16 {
	return int16(binutil.Read2(buf[rec-page.RecNextOffset:]))
}

// IsInfimum reports whether the 7 bytes at rec spell "infimum"; the
// trailing NUL byte is not checked.
func IsInfimum(buf []byte, rec int) bool {
	return string(buf[rec:rec+7]) == "infimum"
}

// IsSupremum reports whether the 8 bytes at rec spell "supremum".
func IsSupremum(buf []byte, rec int) bool {
	return string(buf[rec:rec+8]) == "supremum"
}

// step follows the next-record chain from rec by one hop, validating the
// fixed infimum/supremum literal bytes along the way. A self-relative next
// pointer of 0 is always corruption, never a silent end-of-chain: the chain
// only ends when the status bits say the next record is supremum, and that
// record's literal bytes are checked too.
func step(buf []byte, rec int) (int, error) {
	delta := NextOffset(buf, rec)
	if delta == 0 {
		return -1, ibderr.New(ibderr.CorruptPage, "record at offset %d has a zero self-relative next pointer", rec)
	}
	next := rec + int(delta)
	if Status(buf, next) == page.RecStatusSupremum {
		if !IsSupremum(buf, next) {
			return -1, ibderr.New(ibderr.CorruptPage, "page supremum record has corrupted literal bytes")
		}
		return -1, nil
	}
	return next, nil
}

// FirstUserRec validates the page's infimum record and walks from it to
// the first record that is neither infimum nor supremum. Returns -1, nil
// if the page has no user records.
func FirstUserRec(buf []byte) (int, error) {
	if !IsInfimum(buf, page.PageNewInfimum) {
		return -1, ibderr.New(ibderr.CorruptPage, "page infimum record has corrupted literal bytes")
	}
	return step(buf, page.PageNewInfimum)
}

// NextUserRec follows the next-record chain from rec, skipping nothing,
// and returns -1, nil once supremum is reached.
func NextUserRec(buf []byte, rec int) (int, error) {
	return step(buf, rec)
}
