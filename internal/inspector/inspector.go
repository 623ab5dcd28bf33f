// Package inspector ties the tablespace, SDI, dictionary, physical-layout,
// and walker packages together into the handful of operations the CLI
// exposes: list tables, show an index's level structure, analyze a table
// or a single index, and parse one page in isolation.
package inspector

import (
	"ibdninja/internal/dict"
	"ibdninja/internal/ibderr"
	"ibdninja/internal/output"
	"ibdninja/internal/physical"
	"ibdninja/internal/sdi"
	"ibdninja/internal/tablespace"
	"ibdninja/internal/walker"
)

// Session is an open tablespace plus its decoded dictionary: the set of
// Table documents recovered from SDI and built out by the physical
// layout builder.
type Session struct {
	TS     *tablespace.Tablespace
	Tables []*dict.Table
}

// Open opens path and loads every Table document the tablespace's SDI
// tree carries, running the physical builder on each so its indexes are
// ready for walking.
func Open(path string) (*Session, error) {
	ts, err := tablespace.Open(path)
	if err != nil {
		return nil, err
	}

	docs, err := sdi.Read(ts)
	if err != nil {
		ts.Close()
		return nil, err
	}

	s := &Session{TS: ts}
	for _, doc := range docs {
		t, err := dict.ParseTable(doc.Object)
		if err != nil {
			ts.Close()
			return nil, err
		}
		if err := physical.Build(t); err != nil {
			ts.Close()
			return nil, err
		}
		s.Tables = append(s.Tables, t)
	}
	return s, nil
}

// Close releases the underlying tablespace file.
func (s *Session) Close() error { return s.TS.Close() }

// FindTable returns the table named name, or nil.
func (s *Session) FindTable(name string) *dict.Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// FindIndex returns the named index on table name, or nil, nil if the
// table itself isn't found.
func (s *Session) FindIndex(tableName, indexName string) (*dict.Table, *dict.Index) {
	t := s.FindTable(tableName)
	if t == nil {
		return nil, nil
	}
	for _, idx := range t.Indexes {
		if idx.Name == indexName {
			return t, idx
		}
	}
	return t, nil
}

// FindTableByID returns the table whose InnoDB se_private_id is id, or nil.
func (s *Session) FindTableByID(id uint64) *dict.Table {
	for _, t := range s.Tables {
		if t.SEPrivateID == id {
			return t
		}
	}
	return nil
}

// FindIndexByID returns the table owning the index whose dictionary id is
// id, and that index, or nil, nil if no table carries it.
func (s *Session) FindIndexByID(id uint64) (*dict.Table, *dict.Index) {
	for _, t := range s.Tables {
		for _, idx := range t.Indexes {
			if idx.ID == id {
				return t, idx
			}
		}
	}
	return nil, nil
}

// Levels reports every level's leftmost page for idx. It runs a full
// walker.ParseIndex, so every page on every level's sibling chain is read
// and decoded, not only the leftmost ones.
func (s *Session) Levels(idx *dict.Index) ([]output.LevelPage, error) {
	stats, _, err := walker.ParseIndex(s.TS, idx, false)
	if err != nil {
		return nil, err
	}
	out := make([]output.LevelPage, 0, len(stats.Levels))
	for _, lvl := range stats.Levels {
		out = append(out, output.LevelPage{Level: lvl.Level, PageNo: lvl.Leftmost})
	}
	return out, nil
}

// AnalyzeIndex runs a full walk of idx.
func (s *Session) AnalyzeIndex(idx *dict.Index, withRecords bool) (*walker.IndexStats, map[uint32][]walker.RecordDump, error) {
	return walker.ParseIndex(s.TS, idx, withRecords)
}

// AnalyzeTable runs a full walk of every supported index on t. The
// returned records map is keyed by index name, then by page number.
func (s *Session) AnalyzeTable(t *dict.Table, withRecords bool) (map[string]*walker.IndexStats, map[string]map[uint32][]walker.RecordDump, error) {
	if !t.IsTableParsingRecSupported() {
		return nil, nil, ibderr.New(ibderr.UnsupportedObject, "table %q is not supported for record parsing: %s", t.Name, t.UnsupportedReasonString())
	}
	return walker.ParseTable(s.TS, t, withRecords)
}

// ParsePage parses page pageNo as belonging to idx.
func (s *Session) ParsePage(idx *dict.Index, pageNo uint32, withRecords bool) (*walker.PageStats, []walker.RecordDump, error) {
	return walker.ParsePage(s.TS, idx, pageNo, withRecords)
}
