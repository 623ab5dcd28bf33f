// Package walker traverses a chosen index (or a single page) from root to
// leaf, calls the record offset engine on every record, and folds the
// result into space-utilisation statistics. It is the only consumer of
// internal/offsets outside of tests, and the only component that reads
// whole B-trees rather than single pages.
package walker

import (
	"ibdninja/internal/dict"
	"ibdninja/internal/ibderr"
	"ibdninja/internal/offsets"
	"ibdninja/internal/page"
	"ibdninja/internal/recutil"
	"ibdninja/internal/tablespace"
)

// Stats is one space-utilisation bucket: record counts and byte totals.
type Stats struct {
	NRecs           uint32
	NDeletedRecs    uint32
	HeaderBytes     uint64
	ValidBytes      uint64
	DeletedBytes    uint64
	DroppedColBytes uint64
	FreeBytes       uint64
}

func (s *Stats) add(o *Stats) {
	s.NRecs += o.NRecs
	s.NDeletedRecs += o.NDeletedRecs
	s.HeaderBytes += o.HeaderBytes
	s.ValidBytes += o.ValidBytes
	s.DeletedBytes += o.DeletedBytes
	s.DroppedColBytes += o.DroppedColBytes
	s.FreeBytes += o.FreeBytes
}

// PageStats is the statistics bucket for one page, keyed by its level.
type PageStats struct {
	PageNo uint32
	Level  uint32
	Stats
}

// FieldDump is one decoded field's rendering: its status and raw bytes.
type FieldDump struct {
	Index    int
	Null     bool
	External bool
	Default  bool
	Dropped  bool
	End      uint32
	Raw      []byte
}

// RecordDump is one decoded record, produced only when the caller asks for
// per-record detail.
type RecordDump struct {
	Offset  int
	Deleted bool
	Fields  []FieldDump
}

// LevelStats is the per-level roll-up produced by ParseIndex: every page at
// that level, left to right, folded together.
type LevelStats struct {
	Level    uint32
	NPages   uint32
	Leftmost uint32
	Stats
}

// IndexStats is the complete result of ParseIndex: per-level detail plus
// leaf/non-leaf totals.
type IndexStats struct {
	Levels  []LevelStats
	Leaf    Stats
	NonLeaf Stats
}

// ParsePage reads page pageNo, validates it as an INDEX page belonging to
// idx, and decodes every record on it via the offset engine. When
// wantRecords is true it also returns a RecordDump per record; otherwise
// the second return value is nil, matching the CLI's --no-print-record
// flag.
func ParsePage(ts *tablespace.Tablespace, idx *dict.Index, pageNo uint32, wantRecords bool) (*PageStats, []RecordDump, error) {
	buf, err := ts.ReadPage(pageNo)
	if err != nil {
		return nil, nil, err
	}
	if !page.TrailerLSNMatches(buf, ts.PhysicalPageSize) {
		return nil, nil, ibderr.New(ibderr.CorruptPage, "page %d fails LSN/trailer check", pageNo)
	}
	hdr := page.DecodeHeader(buf)
	if hdr.Type != page.FilPageIndex {
		return nil, nil, ibderr.New(ibderr.CorruptPage, "page %d has type %d, expected INDEX", pageNo, hdr.Type)
	}
	if hdr.IndexID != idx.ID {
		return nil, nil, ibderr.New(ibderr.CorruptPage, "page %d belongs to index %d, not %d", pageNo, hdr.IndexID, idx.ID)
	}

	ps := &PageStats{PageNo: pageNo, Level: hdr.Level}
	ps.FreeBytes = uint64(ts.PhysicalPageSize) - uint64(hdr.HeapTop) + uint64(hdr.Garbage)

	var recs []RecordDump
	rec, err := recutil.FirstUserRec(buf)
	if err != nil {
		return nil, nil, err
	}
	for rec >= 0 {
		off, err := offsets.Compute(buf, rec, idx, hdr.Level)
		if err != nil {
			return nil, nil, err
		}
		deleted := recutil.IsDeleted(buf, rec)

		ps.NRecs++
		headerLen := uint64(off.HeaderLen())
		bodyLen := uint64(off.BodyLen())
		ps.HeaderBytes += headerLen

		if deleted {
			ps.NDeletedRecs++
			ps.DeletedBytes += bodyLen
		} else {
			dropped := droppedColumnBytes(idx, hdr.Level, off)
			ps.DroppedColBytes += dropped
			if bodyLen >= dropped {
				ps.ValidBytes += bodyLen - dropped
			}
		}

		if wantRecords {
			recs = append(recs, buildRecordDump(buf, rec, off, deleted))
		}

		rec, err = recutil.NextUserRec(buf, rec)
		if err != nil {
			return nil, nil, err
		}
	}

	return ps, recs, nil
}

// droppedColumnBytes sums the byte spans of fields whose physical column is
// eventually dropped but which materialise real bytes in this particular
// (non-deleted, leaf) record.
func droppedColumnBytes(idx *dict.Index, level uint32, off *offsets.Offsets) uint64 {
	if level != 0 {
		return 0
	}
	var total uint64
	var prevEnd uint32
	for i := 0; i < off.NFields(); i++ {
		end := off.End(i)
		fi := idx.PhysicalField(uint32(i))
		if fi.Column.IsColumnDropped() && !off.IsDropped(i) {
			if end >= prevEnd {
				total += uint64(end - prevEnd)
			}
		}
		prevEnd = end
	}
	return total
}

func buildRecordDump(buf []byte, rec int, off *offsets.Offsets, deleted bool) RecordDump {
	rd := RecordDump{Offset: rec, Deleted: deleted}
	var prevEnd uint32
	for i := 0; i < off.NFields(); i++ {
		end := off.End(i)
		fd := FieldDump{
			Index:    i,
			Null:     off.IsNull(i),
			External: off.IsExternal(i),
			Default:  off.IsDefault(i),
			Dropped:  off.IsDropped(i),
			End:      end,
		}
		if !fd.Null && !fd.Default && !fd.Dropped && end >= prevEnd {
			fd.Raw = append([]byte(nil), buf[rec+int(prevEnd):rec+int(end)]...)
		}
		rd.Fields = append(rd.Fields, fd)
		prevEnd = end
	}
	return rd
}

// leftmostPageAt descends from idx's root to the leftmost page at every
// level, recording one page number per level.
func leftmostPageAt(ts *tablespace.Tablespace, idx *dict.Index) (map[uint32]uint32, error) {
	leftmost := map[uint32]uint32{}
	cur := idx.RootPage
	for {
		buf, err := ts.ReadPage(cur)
		if err != nil {
			return nil, err
		}
		if !page.TrailerLSNMatches(buf, ts.PhysicalPageSize) {
			return nil, ibderr.New(ibderr.CorruptPage, "page %d fails LSN/trailer check", cur)
		}
		hdr := page.DecodeHeader(buf)
		if hdr.Type != page.FilPageIndex {
			return nil, ibderr.New(ibderr.CorruptPage, "page %d has type %d, expected INDEX", cur, hdr.Type)
		}
		if hdr.IndexID != idx.ID {
			return nil, ibderr.New(ibderr.CorruptPage, "page %d belongs to index %d, not %d", cur, hdr.IndexID, idx.ID)
		}
		leftmost[hdr.Level] = cur
		if hdr.Level == 0 {
			return leftmost, nil
		}

		rec, err := recutil.FirstUserRec(buf)
		if err != nil {
			return nil, err
		}
		if rec < 0 {
			return nil, ibderr.New(ibderr.CorruptPage, "non-leaf page %d has no user records", cur)
		}
		off, err := offsets.Compute(buf, rec, idx, hdr.Level)
		if err != nil {
			return nil, err
		}
		child := off.NodePointerChildPage(buf, rec)
		if child == 0 {
			return nil, ibderr.New(ibderr.CorruptPage, "non-leaf page %d points to child 0", cur)
		}
		cur = child
	}
}

// ParseIndex descends idx from root to its leftmost leaf, then for every
// level walks the sibling chain end to end, calling ParsePage on every
// page and folding per-page statistics into per-level and per-index
// totals.
func ParseIndex(ts *tablespace.Tablespace, idx *dict.Index, wantRecords bool) (*IndexStats, map[uint32][]RecordDump, error) {
	leftmost, err := leftmostPageAt(ts, idx)
	if err != nil {
		return nil, nil, err
	}

	out := &IndexStats{}
	recordsByPage := map[uint32][]RecordDump{}

	for level := uint32(0); ; level++ {
		start, ok := leftmost[level]
		if !ok {
			break
		}
		lvl := LevelStats{Level: level, Leftmost: start}
		pageNo := start
		for pageNo != page.PageEnd {
			ps, recs, err := ParsePage(ts, idx, pageNo, wantRecords)
			if err != nil {
				return nil, nil, err
			}
			lvl.NPages++
			lvl.Stats.add(&ps.Stats)
			if wantRecords {
				recordsByPage[pageNo] = recs
			}

			buf, err := ts.ReadPage(pageNo)
			if err != nil {
				return nil, nil, err
			}
			pageNo = page.DecodeHeader(buf).Next
		}
		out.Levels = append(out.Levels, lvl)
		if level == 0 {
			out.Leaf.add(&lvl.Stats)
		} else {
			out.NonLeaf.add(&lvl.Stats)
		}
	}

	return out, recordsByPage, nil
}

// ParseTable runs ParseIndex over every index of t except those with no
// root page and full-text or spatial ones; an index whose walk fails with
// UnsupportedObject is skipped as well. An index over a virtual column is
// not skipped. The returned records map is
// keyed by index name, then by page number, and is nil unless wantRecords
// is set.
func ParseTable(ts *tablespace.Tablespace, t *dict.Table, wantRecords bool) (map[string]*IndexStats, map[string]map[uint32][]RecordDump, error) {
	results := map[string]*IndexStats{}
	var records map[string]map[uint32][]RecordDump
	if wantRecords {
		records = map[string]map[uint32][]RecordDump{}
	}
	if !t.IsTableParsingRecSupported() {
		return results, records, ibderr.New(ibderr.UnsupportedObject, "table %q is not supported for record parsing", t.Name)
	}
	for _, idx := range t.Indexes {
		if idx.RootPage == 0 {
			continue
		}
		if idx.IsFullText() || idx.IsSpatial() {
			continue
		}
		stats, recs, err := ParseIndex(ts, idx, wantRecords)
		if err != nil {
			if ibderr.KindOf(err) == ibderr.UnsupportedObject {
				continue
			}
			return results, records, err
		}
		results[idx.Name] = stats
		if wantRecords {
			records[idx.Name] = recs
		}
	}
	return results, records, nil
}
