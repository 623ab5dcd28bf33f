package output

import (
	"fmt"
	"strings"

	"ibdninja/internal/walker"
)

type summaryFormatter struct{}

// FormatTableList formats the table listing as a one-line-per-table summary.
func (summaryFormatter) FormatTableList(r *TableListReport) (string, error) {
	if r == nil || len(r.Tables) == 0 {
		return "no tables found.\n", nil
	}
	var sb strings.Builder
	supported, unsupported := 0, 0
	for _, t := range r.Tables {
		if t.Supported {
			supported++
		} else {
			unsupported++
		}
	}
	fmt.Fprintf(&sb, "Tables: %d (%d supported, %d unsupported)\n", len(r.Tables), supported, unsupported)
	for _, t := range r.Tables {
		mark := "+"
		if !t.Supported {
			mark = "-"
		}
		fmt.Fprintf(&sb, "  %s %s.%s\n", mark, t.SchemaName, t.Name)
	}
	return sb.String(), nil
}

func (summaryFormatter) FormatLevels(r *LevelsReport) (string, error) {
	if r == nil {
		return "no levels.\n", nil
	}
	return fmt.Sprintf("index %s: %d level(s)\n", r.IndexName, len(r.Levels)), nil
}

func (summaryFormatter) FormatIndex(r *IndexReport) (string, error) {
	if r == nil {
		return "", nil
	}
	var sb strings.Builder
	writeIndexSummary(&sb, r.IndexName, r.Stats)
	return sb.String(), nil
}

func (summaryFormatter) FormatTable(r *TableReport) (string, error) {
	if r == nil {
		return "", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Table Summary: %s\n", r.TableName)
	fmt.Fprintf(&sb, "===============%s\n\n", strings.Repeat("=", len(r.TableName)))
	for _, idx := range r.Indexes {
		writeIndexSummary(&sb, idx.IndexName, idx.Stats)
	}
	return sb.String(), nil
}

func (summaryFormatter) FormatPage(r *PageReport) (string, error) {
	if r == nil {
		return "", nil
	}
	s := r.Stats.Stats
	return fmt.Sprintf("page %d: %d recs (%d deleted), valid=%d deleted-bytes=%d dropped-col=%d overhead=%d free=%d\n",
		r.PageNo, s.NRecs, s.NDeletedRecs, s.ValidBytes, s.DeletedBytes, s.DroppedColBytes, s.HeaderBytes, s.FreeBytes), nil
}

func (summaryFormatter) FormatDescribe(r *DescribeReport) (string, error) {
	if r == nil {
		return "", nil
	}
	return fmt.Sprintf("%s: %d bytes of DDL\n", r.TableName, len(r.DDL)), nil
}

func (summaryFormatter) FormatDump(r *DumpReport) (string, error) {
	if r == nil || r.Table == nil {
		return "", nil
	}
	t := r.Table
	return fmt.Sprintf("%s: %d column(s), %d index(es), current_row_version=%d\n",
		r.TableName, len(t.PhysicalColumns), len(t.Indexes), t.CurrentRowVersion), nil
}

func writeIndexSummary(sb *strings.Builder, name string, s *walker.IndexStats) {
	if s == nil {
		fmt.Fprintf(sb, "index %s: no data\n", name)
		return
	}
	total := walker.Stats{
		NRecs:           s.Leaf.NRecs + s.NonLeaf.NRecs,
		NDeletedRecs:    s.Leaf.NDeletedRecs + s.NonLeaf.NDeletedRecs,
		HeaderBytes:     s.Leaf.HeaderBytes + s.NonLeaf.HeaderBytes,
		ValidBytes:      s.Leaf.ValidBytes + s.NonLeaf.ValidBytes,
		DeletedBytes:    s.Leaf.DeletedBytes + s.NonLeaf.DeletedBytes,
		DroppedColBytes: s.Leaf.DroppedColBytes + s.NonLeaf.DroppedColBytes,
		FreeBytes:       s.Leaf.FreeBytes + s.NonLeaf.FreeBytes,
	}
	fmt.Fprintf(sb, "index %-20s pages=%d recs=%d valid=%d deleted=%d dropped-col=%d overhead=%d free=%d\n",
		name, totalPages(s), total.NRecs, total.ValidBytes, total.DeletedBytes, total.DroppedColBytes, total.HeaderBytes, total.FreeBytes)
}

func totalPages(s *walker.IndexStats) uint32 {
	var n uint32
	for _, l := range s.Levels {
		n += l.NPages
	}
	return n
}
