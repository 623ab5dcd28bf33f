package page

import "ibdninja/internal/ibderr"

// SpaceFlags is the decoded 32-bit FSP_SPACE_FLAGS word from page 0.
//
// Bit layout (low to high): post-antelope (1), zip-ssize (4), atomic-blobs
// (1), page-ssize (4), data-dir (1), shared (1), temporary (1), encryption
// (1), SDI (1), with the remaining high bits reserved and required to be
// zero.
type SpaceFlags struct {
	PostAntelope bool
	ZipSSize     uint32
	AtomicBlobs  bool
	PageSSize    uint32
	DataDir      bool
	Shared       bool
	Temporary    bool
	Encryption   bool
	SDI          bool
}

const (
	flagPostAntelope = 1 << 0
	flagZipSSizeMask = 0xF << 1
	flagZipSSizeShift = 1
	flagAtomicBlobs  = 1 << 5
	flagPageSSizeMask = 0xF << 6
	flagPageSSizeShift = 6
	flagDataDir      = 1 << 10
	flagShared       = 1 << 11
	flagTemporary    = 1 << 12
	flagEncryption   = 1 << 13
	flagSDI          = 1 << 14
	flagUnusedMask   = ^uint32(1<<15 - 1)
)

// DecodeSpaceFlags parses and validates the raw FSP flags word.
func DecodeSpaceFlags(raw uint32) (SpaceFlags, error) {
	f := SpaceFlags{
		PostAntelope: raw&flagPostAntelope != 0,
		ZipSSize:     (raw & flagZipSSizeMask) >> flagZipSSizeShift,
		AtomicBlobs:  raw&flagAtomicBlobs != 0,
		PageSSize:    (raw & flagPageSSizeMask) >> flagPageSSizeShift,
		DataDir:      raw&flagDataDir != 0,
		Shared:       raw&flagShared != 0,
		Temporary:    raw&flagTemporary != 0,
		Encryption:   raw&flagEncryption != 0,
		SDI:          raw&flagSDI != 0,
	}

	if raw&flagUnusedMask != 0 {
		return f, ibderr.New(ibderr.UnsupportedSpace, "reserved space-flags bits are non-zero (0x%x)", raw)
	}
	if f.PageSSize != 0 && (f.PageSSize < 3 || f.PageSSize > 7) {
		return f, ibderr.New(ibderr.UnsupportedSpace, "page-ssize %d outside supported window", f.PageSSize)
	}
	if f.PostAntelope != f.AtomicBlobs {
		return f, ibderr.New(ibderr.UnsupportedSpace, "post-antelope bit disagrees with atomic-blobs bit")
	}
	if f.DataDir && (f.Shared || f.Temporary) {
		return f, ibderr.New(ibderr.UnsupportedSpace, "data-dir flag set together with shared/temporary")
	}
	if f.Encryption && f.Temporary {
		return f, ibderr.New(ibderr.UnsupportedSpace, "encryption flag set together with temporary")
	}
	if f.ZipSSize != 0 {
		return f, ibderr.New(ibderr.UnsupportedSpace, "compressed tablespaces (zip-ssize=%d) are not supported", f.ZipSSize)
	}
	if f.Encryption {
		return f, ibderr.New(ibderr.UnsupportedSpace, "encrypted tablespaces are not supported")
	}
	if f.Temporary {
		return f, ibderr.New(ibderr.UnsupportedSpace, "temporary tablespaces are not supported")
	}
	return f, nil
}

// LogicalPageSize returns the logical page size in bytes implied by the
// decoded flags: 2^(9+page_ssize), or 16 KiB when page_ssize is zero
// (the pre-8.0 default-size encoding).
func (f SpaceFlags) LogicalPageSize() int {
	if f.PageSSize == 0 {
		return 16 * 1024
	}
	return 1 << (9 + f.PageSSize)
}

// Header describes the fixed fields of the PAGE_HEADER block, common to
// every INDEX-type page (including the SDI tree).
type Header struct {
	NDirSlots uint32
	HeapTop   uint32
	NHeap     uint32
	Free      uint32
	Garbage   uint32
	NRecs     uint32
	Level     uint32
	IndexID   uint64
	Prev      uint32
	Next      uint32
	Type      uint32
	SpaceID   uint32
	LSN       uint64
}

// DecodeHeader reads the file + page header fields out of a raw page
// buffer.
func DecodeHeader(buf []byte) Header {
	return Header{
		NDirSlots: be2(buf, FilPageData+PageNDirSlots),
		HeapTop:   be2(buf, FilPageData+PageHeapTop),
		NHeap:     be2(buf, FilPageData+PageNHeap),
		Free:      be2(buf, FilPageData+PageFree),
		Garbage:   be2(buf, FilPageData+PageGarbage),
		NRecs:     be2(buf, FilPageData+PageNRecs),
		Level:     be2(buf, FilPageData+PageLevel),
		IndexID:   be8(buf, FilPageData+PageIndexID),
		Prev:      be4(buf, FilPagePrev),
		Next:      be4(buf, FilPageNext),
		Type:      be2(buf, FilPageType),
		SpaceID:   be4(buf, FilPageSpaceID),
		LSN:       be8Into64(buf, FilPageLSN),
	}
}

func be2(buf []byte, off int) uint32 {
	return uint32(buf[off])<<8 | uint32(buf[off+1])
}
func be4(buf []byte, off int) uint32 {
	return uint32(buf[off])<<24 | uint32(buf[off+1])<<16 | uint32(buf[off+2])<<8 | uint32(buf[off+3])
}
func be8(buf []byte, off int) uint64 {
	return uint64(be4(buf, off))<<32 | uint64(be4(buf, off+4))
}
func be8Into64(buf []byte, off int) uint64 {
	return uint64(be4(buf, off))<<32 | uint64(be4(buf, off+4))
}

// TrailerLSNMatches verifies the page's checksum/LSN invariant: the low 4
// bytes of the trailing LSN field must equal the low 4 bytes of the header
// LSN.
func TrailerLSNMatches(buf []byte, physicalPageSize int) bool {
	trailerOff := physicalPageSize - FilPageEndLSNOldChecksum
	headerLow := uint32(DecodeHeader(buf).LSN)
	trailerLow := be4(buf, trailerOff+4)
	return headerLow == trailerLow
}
