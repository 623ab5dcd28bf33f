// Package physical derives the physical clustered-index layout from a
// parsed logical dictionary model: system-column injection, fixed-length
// computation, the nullable-bitmap width per row-version, and the
// physical/logical field permutation the record offset engine relies on.
//
// Partitioned tables are out of scope; this builder marks them unsupported.
// Spatial and full-text indexes are only tagged with their DICT_* type bit
// and left unfilled; the table itself stays supported. The FTS_DOC_ID
// column a full-text index implies on the clustered index is still
// accounted for, since it is a real column in the physical row.
package physical

import (
	"ibdninja/internal/dict"
	"ibdninja/internal/ibderr"
)

const (
	dataRowIDLen   = 6
	dataTrxIDLen   = 6
	dataRollPtrLen = 7

	ftsDocIDColName   = "FTS_DOC_ID"
	ftsDocIDIndexName = "FTS_DOC_ID_INDEX"
)

// Build runs the physical builder on t exactly once: pre-checks, column
// enumeration, then index fill for every declared index in order.
func Build(t *dict.Table) error {
	preCheck(t)
	if !t.IsTableSupported() {
		return nil
	}

	t.IsSystemTable = isSystemSchema(t.SchemaName)

	if len(t.Indexes) == 0 {
		return ibderr.New(ibderr.CorruptSDI, "table %q has no indexes", t.Name)
	}

	enumerateColumns(t)

	for i, idx := range t.Indexes {
		if err := fillIndex(t, idx, uint32(i)); err != nil {
			return err
		}
	}
	return nil
}

func isSystemSchema(schema string) bool {
	switch schema {
	case "mysql", "information_schema", "performance_schema":
		return true
	default:
		return false
	}
}

func preCheck(t *dict.Table) {
	var reason dict.UnsupportedReason
	if t.PartitionType != dict.PartitionTypeNone {
		reason |= dict.UnsupportedPartitioned
	}
	if v, ok := t.Options.GetString("encrypt_type"); ok && v != "" && v != "N" && v != "n" {
		reason |= dict.UnsupportedEncrypted
	}
	if t.MysqlVersionID != 0 {
		// Guarded against the zero value so unit tests that omit the
		// field entirely are not spuriously marked unsupported.
		minV, maxV := uint64(80016), uint64(80040)
		if t.MysqlVersionID < minV || t.MysqlVersionID > maxV {
			reason |= dict.UnsupportedVersionWindow
		}
	}
	if t.RowFormat != dict.RowFormatDynamic && t.RowFormat != dict.RowFormatCompact {
		reason |= dict.UnsupportedRowFormat
	}
	t.Unsupported = reason
}

func enumerateColumns(t *dict.Table) {
	var maxVersion uint32
	for _, c := range t.Columns {
		if c.Virtual || c.IsSystemColumn() {
			continue
		}
		if c.IsInstantAdded() && c.VersionAdded > maxVersion {
			maxVersion = c.VersionAdded
		}
		if c.IsInstantDropped() && c.VersionDropped > maxVersion {
			maxVersion = c.VersionDropped
		}
	}
	t.CurrentRowVersion = maxVersion

	hasExplicitPK := len(t.Indexes) > 0 && t.Indexes[0].DDType == dict.DDIndexTypePrimary && !t.Indexes[0].Hidden

	// A table made full-text-capable without an explicit FTS_DOC_ID column
	// gets one synthesized by the engine; it's SE-hidden in the SDI column
	// list and carries no physical sizing of its own, so it's excluded from
	// the normal per-column pass below and rebuilt from scratch instead.
	ftsDocIDCol := t.FindColumn(ftsDocIDColName)
	hasDocID := ftsDocIDCol != nil && ftsDocIDCol.FieldType == dict.TypeLongLong && !ftsDocIDCol.Nullable
	addDocID := hasDocID && ftsDocIDCol.Hidden == dict.HiddenByEngine

	var phys []*dict.Column
	for _, c := range t.Columns {
		if c.Virtual || c.IsColumnDropped() || c.IsSystemColumn() {
			continue
		}
		if addDocID && c == ftsDocIDCol {
			continue
		}
		phys = append(phys, c)
	}

	if addDocID {
		phys = append(phys, &dict.Column{
			Name:           ftsDocIDColName,
			FieldType:      dict.TypeLongLong,
			Nullable:       false,
			Hidden:         dict.HiddenByEngine,
			VersionAdded:   dict.Undefined,
			VersionDropped: dict.Undefined,
			PhysicalPos:    dict.Undefined,
			Mtype:          dict.DataInt,
			ColLen:         8,
		})
	}

	rowIDCol := t.FindColumn("DB_ROW_ID")
	if rowIDCol == nil {
		rowIDCol = &dict.Column{Name: "DB_ROW_ID", FieldType: dict.TypeInt24, VersionAdded: dict.Undefined, VersionDropped: dict.Undefined, PhysicalPos: dict.Undefined}
	}
	trxIDCol := t.FindColumn("DB_TRX_ID")
	if trxIDCol == nil {
		trxIDCol = &dict.Column{Name: "DB_TRX_ID", FieldType: dict.TypeInt24, VersionAdded: dict.Undefined, VersionDropped: dict.Undefined, PhysicalPos: dict.Undefined}
	}
	rollPtrCol := t.FindColumn("DB_ROLL_PTR")
	if rollPtrCol == nil {
		rollPtrCol = &dict.Column{Name: "DB_ROLL_PTR", FieldType: dict.TypeInt24, VersionAdded: dict.Undefined, VersionDropped: dict.Undefined, PhysicalPos: dict.Undefined}
	}

	if !hasExplicitPK {
		phys = append(phys, rowIDCol)
	}
	phys = append(phys, trxIDCol, rollPtrCol)

	for _, c := range t.Columns {
		if c.IsColumnDropped() {
			phys = append(phys, c)
		}
	}

	t.PhysicalColumns = phys
	t.CurrentCols = 0
	t.TotalCols = uint32(len(phys))

	for i, c := range phys {
		c.IndexPos = uint32(i)
		if c.Name == "DB_ROW_ID" || c.Name == "DB_TRX_ID" || c.Name == "DB_ROLL_PTR" {
			c.Mtype = 7 // DataSys
			c.Visible = false
			c.VersionAdded = 0
			c.VersionDropped = 0
			switch c.Name {
			case "DB_ROW_ID":
				c.ColLen = dataRowIDLen
			case "DB_TRX_ID":
				c.ColLen = dataTrxIDLen
			case "DB_ROLL_PTR":
				c.ColLen = dataRollPtrLen
			}
		} else {
			isBin := c.IsBinary()
			c.Mtype = dict.FieldType2SeType(c.FieldType, c.CollationID, isBin)
			if c.FieldType == dict.TypeVarchar {
				c.ColLen = c.PackLength() - c.VarcharLenBytes()
			} else {
				c.ColLen = c.PackLength()
			}
			c.Visible = c.Hidden == dict.HiddenVisible
			if !c.IsColumnDropped() {
				t.CurrentCols++
			}
		}

		if t.HasRowVersions() {
			if v, ok := c.SePrivateData.GetUint("physical_pos"); ok {
				c.PhysicalPos = uint32(v)
			}
		} else {
			c.PhysicalPos = uint32(i)
		}
	}
}

func fillIndex(t *dict.Table, idx *dict.Index, ind uint32) error {
	switch idx.DDType {
	case dict.DDIndexTypeFullText:
		idx.Type = dict.DictFTS
		return nil
	case dict.DDIndexTypeSpatial:
		idx.Type = dict.DictSpatial
		return nil
	}

	rebindFTSDocIDIndex(t, idx)

	for _, f := range idx.Fields {
		if f.Column.Virtual {
			return nil
		}
	}

	if ind == 0 {
		if idx.Hidden {
			// No explicit primary index: the engine's generated
			// clustered key is hidden from the user.
			idx.Type = dict.DictClustered
		} else {
			idx.Type = dict.DictClustered | dict.DictUnique
		}
	} else if idx.DDType == dict.DDIndexTypeUnique {
		idx.Type = dict.DictUnique
	} else {
		idx.Type = 0
	}

	idx.NUserDefinedCols = uint32(len(idx.Fields))
	idx.NNullable = 0
	for _, f := range idx.Fields {
		f.FixedLen = clampFixedLenFor(f)
		if f.Column.Nullable && !f.Column.IsInstantDropped() {
			idx.NNullable++
		}
	}

	if idx.IsClustered() {
		return fillClustered(t, idx)
	}
	return fillSecondary(t, idx)
}

// rebindFTSDocIDIndex fixes up FTS_DOC_ID_INDEX's key column. As parsed
// straight from SDI it points at the raw FTS_DOC_ID column, which may be
// SE-hidden and carries none of the physical sizing enumerateColumns just
// computed; this rebinds it to the canonical physical column (synthesized
// or not) instead.
func rebindFTSDocIDIndex(t *dict.Table, idx *dict.Index) {
	if idx.Name != ftsDocIDIndexName {
		return
	}
	var physDocID *dict.Column
	for _, c := range t.PhysicalColumns {
		if c.Name == ftsDocIDColName {
			physDocID = c
			break
		}
	}
	if physDocID == nil {
		return
	}
	for _, f := range idx.Fields {
		if f.Column.Name == ftsDocIDColName {
			f.Column = physDocID
		}
	}
}

func clampFixedLenFor(f *dict.IndexColumn) uint32 {
	fixed := f.Column.GetFixedSize()
	return clampTo768(fixed, f.Length)
}

func clampTo768(colFixed, prefixLen uint32) uint32 {
	fixed := colFixed
	if prefixLen > 0 && prefixLen < fixed {
		fixed = prefixLen
	}
	const dictMaxFixedColLen = 768
	if fixed > dictMaxFixedColLen {
		return 0
	}
	return fixed
}

func fillClustered(t *dict.Table, idx *dict.Index) error {
	processed := uint32(len(idx.Fields))

	appendSys := func(col *dict.Column) {
		idx.Fields = append(idx.Fields, &dict.IndexColumn{Column: col})
		if !t.HasRowVersions() {
			col.PhysicalPos = processed
		}
		processed++
	}

	if !idx.IsUnique() {
		if rid := t.FindColumn("DB_ROW_ID"); rid != nil {
			appendSys(rid)
		}
	}
	if tid := t.FindColumn("DB_TRX_ID"); tid != nil {
		appendSys(tid)
	} else {
		return ibderr.New(ibderr.Internal, "table %q missing DB_TRX_ID column", t.Name)
	}
	if rp := t.FindColumn("DB_ROLL_PTR"); rp != nil {
		appendSys(rp)
	} else {
		return ibderr.New(ibderr.Internal, "table %q missing DB_ROLL_PTR column", t.Name)
	}

	indexed := map[*dict.Column]bool{}
	for _, f := range idx.Fields {
		indexed[f.Column] = true
	}
	for _, c := range t.PhysicalColumns {
		if c.IsColumnDropped() || c.IsSystemColumn() {
			continue
		}
		if indexed[c] {
			continue
		}
		if !t.HasRowVersions() {
			c.PhysicalPos = processed
		}
		idx.Fields = append(idx.Fields, &dict.IndexColumn{Column: c})
		processed++
	}
	for _, c := range t.PhysicalColumns {
		if c.IsColumnDropped() {
			idx.Fields = append(idx.Fields, &dict.IndexColumn{Column: c})
		}
	}

	if !t.IsSystemTable {
		if t.HasRowVersions() {
			idx.FieldsArray = make([]uint32, len(idx.Fields))
			for i, f := range idx.Fields {
				idx.FieldsArray[f.Column.PhysicalPos] = uint32(i)
			}

			current := t.CurrentRowVersion
			updateNullable := func(start uint32, inc bool) {
				for v := start; v <= current; v++ {
					if inc {
						idx.Nullables[v]++
					} else if idx.Nullables[v] > 0 {
						idx.Nullables[v]--
					}
				}
			}
			for _, f := range idx.Fields {
				c := f.Column
				if c.IsSystemColumn() || !c.Nullable {
					continue
				}
				start := uint32(0)
				if c.IsInstantAdded() {
					start = c.VersionAdded
				}
				updateNullable(start, true)
				if c.IsInstantDropped() {
					updateNullable(c.VersionDropped, false)
				}
			}
		}
	}

	t.ClustIndex = idx

	if v, ok := idx.SePrivateData.GetUint("id"); ok {
		idx.ID = v
	}
	if v, ok := idx.SePrivateData.GetUint("root"); ok {
		idx.RootPage = uint32(v)
	}

	idx.NTotalFields = uint32(len(idx.Fields))
	idx.NFields = idx.NTotalFields
	if t.HasRowVersions() {
		idx.NFields = idx.NTotalFields - t.GetNInstantDropCols()
	}
	idx.NUniq = idx.NUserDefinedCols
	if !idx.IsUnique() {
		idx.NUniq++
	}

	idx.InstantCols = false
	idx.NInstantNullable = idx.NNullable
	idx.RowVersions = t.HasRowVersions()
	if t.HasInstantCols() {
		idx.InstantCols = true
		idx.NInstantNullable = calculateNInstantNullable(t, idx, idx.NUserDefinedCols)
	}
	return nil
}

func fillSecondary(t *dict.Table, idx *dict.Index) error {
	clust := t.ClustIndex
	if clust == nil {
		return ibderr.New(ibderr.Internal, "secondary index %q built before clustered index", idx.Name)
	}

	indexed := map[*dict.Column]bool{}
	for _, f := range idx.Fields {
		if f.Column.Virtual {
			continue
		}
		indexed[f.Column] = true
	}
	for i := uint32(0); i < clust.NUniq && int(i) < len(clust.Fields); i++ {
		c := clust.Fields[i].Column
		if !indexed[c] {
			idx.Fields = append(idx.Fields, &dict.IndexColumn{Column: c})
		}
	}

	if idx.IsUnique() {
		idx.NUniq = uint32(len(idx.Fields))
	} else {
		idx.NUniq = uint32(len(idx.Fields))
	}
	idx.NFields = uint32(len(idx.Fields))
	idx.NTotalFields = idx.NFields

	if v, ok := idx.SePrivateData.GetUint("id"); ok {
		idx.ID = v
	}
	if v, ok := idx.SePrivateData.GetUint("root"); ok {
		idx.RootPage = uint32(v)
	}
	return nil
}

// calculateNInstantNullable returns the nullable-bitmap width for a record
// holding nFields fields. With row versions it counts nullable physical
// columns whose physical position falls below nFields, excluding
// instant-added ones and including instant-dropped ones; without row
// versions it counts the nullable columns among idx's first nFields fields.
func calculateNInstantNullable(t *dict.Table, idx *dict.Index, nFields uint32) uint32 {
	if t.HasRowVersions() {
		var n uint32
		for _, c := range t.PhysicalColumns {
			if !c.Nullable {
				continue
			}
			if c.PhysicalPos >= nFields {
				continue
			}
			if c.IsColumnDropped() {
				n++
				continue
			}
			if c.IsInstantAdded() {
				continue
			}
			n++
		}
		return n
	}
	var n uint32
	for i := uint32(0); i < nFields && int(i) < len(idx.Fields); i++ {
		if idx.Fields[i].Column.Nullable {
			n++
		}
	}
	return n
}
