// Package tablespace opens a single .ibd file and provides the page-level
// read primitive every higher component is built on. It threads the
// decoded space geometry explicitly through its methods instead of relying
// on process-global state, the way the source engine does with its
// g_fd/g_page_size_shift globals.
package tablespace

import (
	"os"

	"ibdninja/internal/binutil"
	"ibdninja/internal/ibderr"
	"ibdninja/internal/page"
)

// Tablespace is an opaque, immutable-after-construction handle on one open
// .ibd file. Its lifetime spans a single inspection session.
type Tablespace struct {
	f                *os.File
	path             string
	SpaceID          uint32
	Flags            page.SpaceFlags
	LogicalPageSize  int
	PhysicalPageSize int
	PageCount        int64
	sdiRootPage      uint32
}

// Open reads page 0, validates the space flags, and returns a ready
// Tablespace handle. The file descriptor is held for the handle's
// lifetime and released by Close.
func Open(path string) (*Tablespace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ibderr.Wrap(ibderr.InvalidArgument, err, "open tablespace file %q", path)
	}

	ts := &Tablespace{f: f, path: path}

	// Page 0 is always exactly 16 KiB regardless of the space's logical
	// page size, since the flags word that reveals the real page size
	// lives inside it.
	page0 := make([]byte, 16*1024)
	if _, err := f.ReadAt(page0, 0); err != nil {
		f.Close()
		return nil, ibderr.Wrap(ibderr.InvalidArgument, err, "read page 0 of %q", path)
	}

	rawFlags := binutil.Read4(page0[page.FSPHeaderOffset+page.FSPSpaceFlags:])
	flags, err := page.DecodeSpaceFlags(rawFlags)
	if err != nil {
		f.Close()
		return nil, err
	}
	ts.Flags = flags
	ts.LogicalPageSize = flags.LogicalPageSize()
	ts.PhysicalPageSize = ts.LogicalPageSize
	ts.SpaceID = binutil.Read4(page0[page.FilPageSpaceID:])

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ibderr.Wrap(ibderr.InvalidArgument, err, "stat %q", path)
	}
	if info.Size()%int64(ts.PhysicalPageSize) != 0 {
		f.Close()
		return nil, ibderr.New(ibderr.CorruptPage, "file size %d is not a multiple of page size %d", info.Size(), ts.PhysicalPageSize)
	}
	ts.PageCount = info.Size() / int64(ts.PhysicalPageSize)

	sdiOff := page.SDIRootPageOffset(ts.PhysicalPageSize)
	ts.sdiRootPage = binutil.Read4(page0[sdiOff:])

	return ts, nil
}

// Close releases the underlying file descriptor.
func (ts *Tablespace) Close() error {
	return ts.f.Close()
}

// SDIRootPage returns the page number of the root of the SDI B-tree, read
// from the fixed offset past the XDES array in page 0's FSP header.
func (ts *Tablespace) SDIRootPage() uint32 { return ts.sdiRootPage }

// ReadPage reads page pageNo into a freshly allocated, page-aligned buffer.
func (ts *Tablespace) ReadPage(pageNo uint32) ([]byte, error) {
	if int64(pageNo) >= ts.PageCount {
		return nil, ibderr.New(ibderr.InvalidArgument, "page %d is out of range (space has %d pages)", pageNo, ts.PageCount)
	}
	buf := make([]byte, binutil.AlignUp(ts.PhysicalPageSize, ts.PhysicalPageSize))
	off := int64(pageNo) * int64(ts.PhysicalPageSize)
	if _, err := ts.f.ReadAt(buf, off); err != nil {
		return nil, ibderr.Wrap(ibderr.InvalidArgument, err, "read page %d", pageNo)
	}
	return buf, nil
}

// Path returns the filesystem path the tablespace was opened from.
func (ts *Tablespace) Path() string { return ts.path }
