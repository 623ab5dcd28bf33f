package output

import (
	"fmt"
	"strings"

	"ibdninja/internal/dict"
	"ibdninja/internal/walker"
)

type humanFormatter struct{}

func (humanFormatter) FormatTableList(r *TableListReport) (string, error) {
	if r == nil || len(r.Tables) == 0 {
		return "no tables found in SDI\n", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-6s %-24s %-16s %s\n", "ID", "TABLE", "SCHEMA", "STATUS")
	for _, t := range r.Tables {
		status := "supported"
		if !t.Supported {
			status = "unsupported: " + t.Reason
		}
		fmt.Fprintf(&sb, "%-6d %-24s %-16s %s\n", t.ID, t.Name, t.SchemaName, status)
	}
	return sb.String(), nil
}

func (humanFormatter) FormatLevels(r *LevelsReport) (string, error) {
	if r == nil {
		return "", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "index %s: %d level(s)\n", r.IndexName, len(r.Levels))
	for _, l := range r.Levels {
		fmt.Fprintf(&sb, "  level %d: leftmost page %d\n", l.Level, l.PageNo)
	}
	return sb.String(), nil
}

func (humanFormatter) FormatIndex(r *IndexReport) (string, error) {
	if r == nil {
		return "", nil
	}
	var sb strings.Builder
	writeIndexStats(&sb, r.IndexName, r.Stats)
	writeRecords(&sb, r.Records)
	return sb.String(), nil
}

func (humanFormatter) FormatTable(r *TableReport) (string, error) {
	if r == nil {
		return "", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "table %s: %d index(es)\n\n", r.TableName, len(r.Indexes))
	for _, idx := range r.Indexes {
		writeIndexStats(&sb, idx.IndexName, idx.Stats)
		writeRecords(&sb, idx.Records)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (humanFormatter) FormatPage(r *PageReport) (string, error) {
	if r == nil {
		return "", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "page %d (level %d)\n", r.PageNo, r.Stats.Level)
	writeStatsBlock(&sb, &r.Stats.Stats)
	writeRecordDumps(&sb, r.Records)
	return sb.String(), nil
}

func (humanFormatter) FormatDescribe(r *DescribeReport) (string, error) {
	if r == nil {
		return "", nil
	}
	return r.DDL + "\n", nil
}

// FormatDump renders the full decoded dictionary model of a table as an
// indented tree, the way a debugger would walk it field by field.
func (humanFormatter) FormatDump(r *DumpReport) (string, error) {
	if r == nil || r.Table == nil {
		return "", nil
	}
	var sb strings.Builder
	writeTableDump(&sb, r.Table, 0)
	return sb.String(), nil
}

func writeTableDump(sb *strings.Builder, t *dict.Table, space int) {
	pad := strings.Repeat(" ", space)
	fmt.Fprintf(sb, "%sTable: %s.%s\n", pad, t.SchemaName, t.Name)
	fmt.Fprintf(sb, "%s  row_format: %d  unsupported: %s\n", pad, t.RowFormat, t.UnsupportedReasonString())
	fmt.Fprintf(sb, "%s  initial_cols: %d  current_cols: %d  total_cols: %d  current_row_version: %d\n",
		pad, t.InitialCols, t.CurrentCols, t.TotalCols, t.CurrentRowVersion)
	fmt.Fprintf(sb, "%s  columns:\n", pad)
	for _, c := range t.PhysicalColumns {
		writeColumnDump(sb, c, space+4)
	}
	fmt.Fprintf(sb, "%s  indexes:\n", pad)
	for _, idx := range t.Indexes {
		writeIndexDump(sb, idx, space+4)
	}
}

func writeColumnDump(sb *strings.Builder, c *dict.Column, space int) {
	pad := strings.Repeat(" ", space)
	fmt.Fprintf(sb, "%s%s: mtype=%d col_len=%d index_pos=%d physical_pos=%d visible=%t version_added=%d version_dropped=%d\n",
		pad, c.Name, c.Mtype, c.ColLen, c.IndexPos, c.PhysicalPos, c.Visible, c.VersionAdded, c.VersionDropped)
}

func writeIndexDump(sb *strings.Builder, idx *dict.Index, space int) {
	pad := strings.Repeat(" ", space)
	fmt.Fprintf(sb, "%sIndex: %s (id=%d root=%d type=%d)\n", pad, idx.Name, idx.ID, idx.RootPage, idx.Type)
	fmt.Fprintf(sb, "%s  n_fields=%d n_total_fields=%d n_uniq=%d n_nullable=%d n_instant_nullable=%d row_versions=%t instant_cols=%t\n",
		pad, idx.NFields, idx.NTotalFields, idx.NUniq, idx.NNullable, idx.NInstantNullable, idx.RowVersions, idx.InstantCols)
	for i, f := range idx.Fields {
		fmt.Fprintf(sb, "%s  field[%d] %s fixed_len=%d prefix_len=%d\n", pad, i, f.Column.Name, f.FixedLen, f.Length)
	}
}

func writeIndexStats(sb *strings.Builder, name string, s *walker.IndexStats) {
	fmt.Fprintf(sb, "index %s\n", name)
	if s == nil {
		return
	}
	for _, lvl := range s.Levels {
		kind := "non-leaf"
		if lvl.Level == 0 {
			kind = "leaf"
		}
		fmt.Fprintf(sb, "  level %d (%s): %d page(s), leftmost %d\n", lvl.Level, kind, lvl.NPages, lvl.Leftmost)
		writeStatsBlock(sb, &lvl.Stats)
	}
	fmt.Fprintf(sb, "  totals: leaf=")
	writeStatsInline(sb, &s.Leaf)
	fmt.Fprintf(sb, " non-leaf=")
	writeStatsInline(sb, &s.NonLeaf)
	sb.WriteString("\n")
}

func writeStatsBlock(sb *strings.Builder, s *walker.Stats) {
	fmt.Fprintf(sb, "    records: %d (deleted %d)\n", s.NRecs, s.NDeletedRecs)
	fmt.Fprintf(sb, "    bytes: valid=%d deleted=%d dropped-col=%d overhead=%d free=%d\n",
		s.ValidBytes, s.DeletedBytes, s.DroppedColBytes, s.HeaderBytes, s.FreeBytes)
}

func writeStatsInline(sb *strings.Builder, s *walker.Stats) {
	fmt.Fprintf(sb, "{recs=%d deleted=%d valid=%d dropped-col=%d overhead=%d free=%d}",
		s.NRecs, s.NDeletedRecs, s.ValidBytes, s.DroppedColBytes, s.HeaderBytes, s.FreeBytes)
}

func writeRecords(sb *strings.Builder, byPage map[uint32][]walker.RecordDump) {
	if byPage == nil {
		return
	}
	for pageNo, recs := range byPage {
		fmt.Fprintf(sb, "  page %d:\n", pageNo)
		writeRecordDumpsIndented(sb, recs, "    ")
	}
}

func writeRecordDumps(sb *strings.Builder, recs []walker.RecordDump) {
	writeRecordDumpsIndented(sb, recs, "  ")
}

func writeRecordDumpsIndented(sb *strings.Builder, recs []walker.RecordDump, indent string) {
	for _, r := range recs {
		status := "valid"
		if r.Deleted {
			status = "deleted"
		}
		fmt.Fprintf(sb, "%srecord @%d (%s)\n", indent, r.Offset, status)
		for _, f := range r.Fields {
			fmt.Fprintf(sb, "%s  field[%d] %s\n", indent, f.Index, fieldStatus(f))
		}
	}
}

func fieldStatus(f walker.FieldDump) string {
	switch {
	case f.Dropped:
		return "DROPPED"
	case f.Null:
		return "NULL"
	case f.Default:
		return "DEFAULT"
	case f.External:
		return fmt.Sprintf("EXTERNAL end=%d raw=%x", f.End, f.Raw)
	default:
		return fmt.Sprintf("end=%d raw=%x", f.End, f.Raw)
	}
}
