package dict

import "ibdninja/internal/page"

// IndexType bits, matching DICT_CLUSTERED / DICT_UNIQUE / DICT_FTS /
// DICT_SPATIAL.
const (
	DictClustered uint32 = 1
	DictUnique    uint32 = 2
	DictFTS       uint32 = 32
	DictSpatial   uint32 = 64
)

// MaxRowVersion bounds the per-row-version nullable-count table.
const MaxRowVersion = 64

// DD index type tags, matching dd::Index::enum_index_type.
const (
	DDIndexTypePrimary uint32 = iota + 1
	DDIndexTypeUnique
	DDIndexTypeMultiple
	DDIndexTypeFullText
	DDIndexTypeSpatial
)

// IndexColumn references one Column within an Index's key definition.
type IndexColumn struct {
	Column   *Column
	Length   uint32 // prefix length in bytes, 0 when unused
	Order    uint32
	Hidden   bool
	ColumnOpx uint32 // 0-based index into the table's logical column vector

	// FixedLen is the physical fixed width of this key part: 0 for
	// variable-length, clamped to DictMaxFixedColLen, or the MBR width
	// for spatial keys.
	FixedLen uint32
}

// Index is one B-tree (clustered or secondary) defined on a Table.
type Index struct {
	Name     string
	Hidden   bool
	DDType   uint32 // dd enum_index_type: PRIMARY/UNIQUE/MULTIPLE/FULLTEXT/SPATIAL
	Fields   []*IndexColumn
	Options  Properties
	SePrivateData Properties

	// --- physical, from FillSeIndex ---
	Type              uint32 // DICT_* bits
	ID                uint64
	RootPage          uint32
	NFields           uint32
	NTotalFields       uint32
	NUniq             uint32
	NNullable         uint32
	NInstantNullable  uint32
	Nullables         [MaxRowVersion + 1]uint32
	RowVersions       bool
	InstantCols       bool
	FieldsArray       []uint32 // physical_pos -> logical slot in Fields, when RowVersions
	NUserDefinedCols  uint32

	table *Table
}

// NewIndex constructs an Index bound to table. Exported chiefly for tests in
// other packages that need to exercise index-shaped logic (the offset
// engine, the walker) without going through SDI parsing.
func NewIndex(table *Table) *Index {
	return &Index{table: table}
}

// Table returns the owning table.
func (idx *Index) Table() *Table { return idx.table }

// IsClustered reports whether this is the table's clustered index.
func (idx *Index) IsClustered() bool { return idx.Type&DictClustered != 0 }

// IsUnique reports whether the index enforces uniqueness.
func (idx *Index) IsUnique() bool { return idx.Type&DictUnique != 0 }

// IsFullText reports whether this is a full-text index.
func (idx *Index) IsFullText() bool { return idx.Type&DictFTS != 0 }

// IsSpatial reports whether this is a spatial (R-tree) index.
func (idx *Index) IsSpatial() bool { return idx.Type&DictSpatial != 0 }

// PhysicalField returns the i-th physical field of the index, resolving
// through FieldsArray when the table carries row versions.
func (idx *Index) PhysicalField(i uint32) *IndexColumn {
	if idx.RowVersions && idx.FieldsArray != nil {
		slot := idx.FieldsArray[i]
		return idx.Fields[slot]
	}
	return idx.Fields[i]
}

// ClampFixedLen applies the DictMaxFixedColLen ceiling and any
// index-element prefix length to a column's engine fixed size.
func ClampFixedLen(colFixed uint32, prefixLen uint32) uint32 {
	fixed := colFixed
	if prefixLen > 0 && prefixLen < fixed {
		fixed = prefixLen
	}
	if fixed > page.DictMaxFixedColLen {
		return 0
	}
	return fixed
}
