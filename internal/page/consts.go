// Package page holds the on-disk layout constants for a tablespace page and
// the geometry/header decoders built on top of them. Offsets are taken
// directly from the storage engine's own fil0fil / page0page / fsp0fsp
// headers.
package page

// File header / trailer offsets, relative to the start of a page.
const (
	FilPageSpaceOrChecksum = 0
	FilPageOffset          = 4
	FilPagePrev            = 8
	FilPageNext            = 12
	FilPageLSN             = 16
	FilPageType            = 24
	FilPageFileFlushLSN    = 26
	FilPageSpaceID         = 34
	FilPageData            = 38

	FilPageEndLSNOldChecksum = 8 // size of the trailer, from the page end
)

// Page types relevant to this inspector. Unlisted types are treated as
// opaque/unsupported.
const (
	FilPageIndex   = 17855
	FilPageRTree   = 17854
	FilPageSDI     = 17853
	FilPageSDIBlob = 18
)

// PAGE_HEADER field offsets, relative to FilPageData.
const (
	PageNDirSlots = 0
	PageHeapTop   = 2
	PageNHeap     = 4
	PageFree      = 6
	PageGarbage   = 8
	PagePrevRec   = 10 // unused by this inspector; kept for layout fidelity
	PageLast      = 12
	PageNRecs     = 16
	PageMaxTrxID  = 18
	PageLevel     = 26
	PageIndexID   = 28
	PageBtrSegLeaf = 36
	PageBtrSegTop  = 36 + 10
	PageHeaderSize = 36 + 2*10
)

// PageData is the start of user record space, following the page header.
const PageData = FilPageData + PageHeaderSize

// New-style infimum/supremum fixed offsets (COMPACT and DYNAMIC formats).
// Both pseudo-records carry the standard 5-byte extra header immediately
// before their origin, same as any real record.
const (
	PageNewInfimum  = PageData + 5
	PageNewSupremum = PageNewInfimum + 8 + 5
)

// FSP header offsets, relative to FilPageData (page 0 only).
const (
	FSPSpaceID       = 0
	FSPNotUsed       = 4
	FSPSize          = 8
	FSPFreeLimit     = 12
	FSPSpaceFlags    = 16
	FSPFragNUsed     = 20
	// FSPFree, FSPFreeFrag, FSPFull, FSPFullFrag, FSPExtents are FLST_BASE_NODE
	// lists of FLSTBaseNodeSize bytes each, starting at FSPFragNUsed+4.
	FSPFirstList = FSPFragNUsed + 4
	FILAddrSize  = 6
	FLSTBaseNodeSize = 4 + 2*FILAddrSize
	FSPHeaderSize    = 32 + 5*FLSTBaseNodeSize
	FSPHeaderOffset  = FilPageData

	XDESArrOffset = FSPHeaderOffset + FSPHeaderSize
)

const (
	// XDESSize is the byte size of one extent-descriptor entry.
	XDESSize = 8 + FLSTBaseNodeSize + 4 // xdes_id skipped by this inspector's simplified layout; see FSPExtentSize
	InfoMaxSize = 4 * 32                // generous upper bound on per-space reserved info, matches source constant
)

// FSPExtentSize returns FSP_EXTENT_SIZE for a given physical page size, in
// pages. One extent covers 1 MiB for page sizes up to 16 KiB, 2 MiB up to
// 32 KiB, and 4 MiB otherwise.
func FSPExtentSize(physicalPageSize int) int {
	switch {
	case physicalPageSize <= 16*1024:
		return (1 * 1024 * 1024) / physicalPageSize
	case physicalPageSize <= 32*1024:
		return (2 * 1024 * 1024) / physicalPageSize
	default:
		return (4 * 1024 * 1024) / physicalPageSize
	}
}

// SDIRootPageOffset returns the byte offset of the 4-byte SDI root page
// number within page 0, given the physical page size.
func SDIRootPageOffset(physicalPageSize int) int {
	extentSize := FSPExtentSize(physicalPageSize)
	return XDESArrOffset + XDESSize*(physicalPageSize/extentSize) + InfoMaxSize + 4
}

// Record header constants (compact/dynamic row formats only; redundant is
// out of scope).
const (
	RecNNewExtraBytes = 5
	RecNewStatus      = 3 // offset, from rec origin, of the status/next-rec byte pair start
	RecNewInfoBits    = 5 // offset of the info-bits/n-owned byte
	RecNextOffset     = 2 // 2-byte self-relative next-record pointer, ends at rec-2

	RecInfoDeletedFlag  = 0x20
	RecInfoVersionFlag  = 0x40
	RecInfoInstantFlag  = 0x80

	RecStatusOrdinary = 0
	RecStatusNodePtr  = 1
	RecStatusInfimum  = 2
	RecStatusSupremum = 3

	RecNodePtrSize = 4

	RecNFieldsTwoBytesFlag = 0x80

	DictMaxFixedColLen = 768

	SDIBlobAllowed = 4
)

// LOB (large object) header layout used by SDI-BLOB chain pages.
const (
	LobHdrPartLen     = 0
	LobHdrNextPageNo  = 4
	LobHdrSize        = 8
)

// Record offset status bits, packed into the high nibble of each offsets
// word; the low 28 bits hold the in-record end offset.
const (
	RecOffsSQLNull = 1 << 31
	RecOffsExternal = 1 << 30
	RecOffsDefault  = 1 << 29
	RecOffsDrop     = 1 << 28
	RecOffsMask     = RecOffsDrop - 1

	RecOffsCompactPage  = 1 << 31 // header word 0 flag bits (distinct namespace from per-field status)
	RecOffsAnyExtern    = 1 << 30
)

const PageEnd = 0xFFFFFFFF

// SupportedVersionMin and SupportedVersionMax bound the mysqld_version_id
// window this inspector understands.
const (
	SupportedVersionMin = 80016
	SupportedVersionMax = 80040
)
