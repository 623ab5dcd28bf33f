package dict

// RowFormat mirrors the dd row_format enumeration; only COMPACT and
// DYNAMIC are understood downstream of the dictionary model.
type RowFormat int

const (
	RowFormatFixed RowFormat = iota
	RowFormatDynamic
	RowFormatCompressed
	RowFormatRedundant
	RowFormatCompact
	RowFormatPaged
)

// PartitionType mirrors the dd partition_type enumeration. Only NONE is
// supported; anything else marks the table unsupported.
type PartitionType int

const PartitionTypeNone PartitionType = 0

// UnsupportedReason is a bitmask of the pre-check failures recorded by the
// physical builder.
type UnsupportedReason uint32

const (
	UnsupportedPartitioned UnsupportedReason = 1 << iota
	UnsupportedEncrypted
	UnsupportedVersionWindow
	UnsupportedRowFormat
)

// Table is the logical + physical representation of one SDI "Table"
// document.
type Table struct {
	// --- logical, from SDI ---
	Name             string
	SchemaName       string
	MysqlVersionID    uint64
	Created          uint64
	LastAltered      uint64
	Hidden           HiddenType
	Options          Properties
	SePrivateData    Properties
	RowFormat        RowFormat
	PartitionType    PartitionType
	SEPrivateID      uint64

	Columns []*Column
	Indexes []*Index

	// --- physical, from the physical builder ---
	PhysicalColumns    []*Column
	InitialCols        uint32
	CurrentCols        uint32
	TotalCols          uint32
	CurrentRowVersion  uint32
	HasUpgradedInstant bool
	ClustIndex         *Index
	IsSystemTable      bool
	Unsupported        UnsupportedReason

	hasRowVersionsFlag bool
	hasInstantColsFlag bool
}

// IsTableSupported reports whether the physical builder's pre-checks
// passed.
func (t *Table) IsTableSupported() bool { return t.Unsupported == 0 }

// UnsupportedReasonString renders Unsupported as a human-readable list.
func (t *Table) UnsupportedReasonString() string {
	if t.Unsupported == 0 {
		return ""
	}
	s := ""
	add := func(cond bool, name string) {
		if !cond {
			return
		}
		if s != "" {
			s += ","
		}
		s += name
	}
	add(t.Unsupported&UnsupportedPartitioned != 0, "partitioned")
	add(t.Unsupported&UnsupportedEncrypted != 0, "encrypted")
	add(t.Unsupported&UnsupportedVersionWindow != 0, "version-window")
	add(t.Unsupported&UnsupportedRowFormat != 0, "row-format")
	return s
}

// IsTableParsingRecSupported additionally requires COMPACT or DYNAMIC row
// format, since record parsing does not understand REDUNDANT layouts.
func (t *Table) IsTableParsingRecSupported() bool {
	if !t.IsTableSupported() {
		return false
	}
	return t.RowFormat == RowFormatDynamic || t.RowFormat == RowFormatCompact
}

// FindColumn returns the logical column named name, or nil.
func (t *Table) FindColumn(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasRowVersions reports whether any column's se_private_data carries a
// physical_pos, marking the table as row-versioned (post-8.0.29 INSTANT
// ADD/DROP).
func (t *Table) HasRowVersions() bool { return t.hasRowVersionsFlag }

// HasInstantCols reports whether the table has pre-row-version INSTANT ADD
// history (an "instant_col" marker in the table's se_private_data) or,
// once row-versioned, any added/dropped column.
func (t *Table) HasInstantCols() bool { return t.hasInstantColsFlag }

// GetTotalCols returns the number of physical columns including dropped
// ones.
func (t *Table) GetTotalCols() uint32 { return uint32(len(t.PhysicalColumns)) }

// GetNInstantAddCols counts surviving columns added via INSTANT ADD.
func (t *Table) GetNInstantAddCols() uint32 {
	var n uint32
	for _, c := range t.PhysicalColumns {
		if c.IsInstantAdded() && !c.IsInstantDropped() {
			n++
		}
	}
	return n
}

// HasInstantAddCols reports whether GetNInstantAddCols is nonzero.
func (t *Table) HasInstantAddCols() bool { return t.GetNInstantAddCols() > 0 }

// GetNInstantDropCols counts physical columns carrying a version_dropped.
func (t *Table) GetNInstantDropCols() uint32 {
	var n uint32
	for _, c := range t.PhysicalColumns {
		if c.IsInstantDropped() {
			n++
		}
	}
	return n
}

// HasInstantDropCols reports whether GetNInstantDropCols is nonzero.
func (t *Table) HasInstantDropCols() bool { return t.GetNInstantDropCols() > 0 }

// IsCompact reports whether the row format stores fields in the compact
// encoding this inspector understands (COMPACT or DYNAMIC both do).
func (t *Table) IsCompact() bool {
	return t.RowFormat == RowFormatCompact || t.RowFormat == RowFormatDynamic
}

// HasInstantColsOrRowVersions is a convenience used by the offset engine to
// decide whether any of the instant-history classification logic applies
// at all.
func (t *Table) HasInstantColsOrRowVersions() bool {
	return t.HasInstantCols() || t.HasRowVersions()
}
