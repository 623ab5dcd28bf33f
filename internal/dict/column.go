package dict

import "ibdninja/internal/collation"

// HiddenType mirrors the dd column "hidden" enumeration.
type HiddenType int

const (
	HiddenVisible HiddenType = iota
	HiddenByEngine
	HiddenBySQL
	HiddenByUser
)

// Column is the logical + physical representation of one table column.
// The logical fields are populated straight from SDI JSON; the physical
// fields (marked below) are filled in exactly once by the physical table
// builder.
type Column struct {
	// --- logical, from SDI ---
	Name              string
	FieldType         FieldType
	Nullable          bool
	Virtual           bool
	Hidden            HiddenType
	OrdinalPosition   uint32
	CharLength        uint32
	NumericPrecision  uint32
	NumericScale      uint32
	DatetimePrecision uint32
	DefaultValue      string
	DefaultValueUTF8  string
	CollationID       int
	ElementsSize      uint32 // dimension of ENUM/SET storage; only len(elements) is used
	Options           Properties
	SePrivateData     Properties

	// --- physical, from the physical builder ---
	Mtype          mtype
	ColLen         uint32
	IndexPos       uint32 // 0-based slot in the physical column vector
	FixedLen       uint32
	PhysicalPos    uint32
	VersionAdded   uint32
	VersionDropped uint32
	Visible        bool
	InstantDefault bool

	// ClusteredIndexCol is the non-owning back-reference to this column's
	// clustered-index entry, set during physical build.
	ClusteredIndexCol *IndexColumn
}

// Undefined marks an unset version-added/version-dropped/physical-pos
// field, matching the source's UINT8_UNDEFINED / UINT32_UNDEFINED.
const Undefined = 0xFFFFFFFF

// IsSystemColumn reports whether this is one of the three InnoDB system
// columns (DB_ROW_ID, DB_TRX_ID, DB_ROLL_PTR).
func (c *Column) IsSystemColumn() bool {
	switch c.Name {
	case "DB_ROW_ID", "DB_TRX_ID", "DB_ROLL_PTR":
		return true
	default:
		return false
	}
}

// IsBinary reports whether the column's collation is my_charset_bin for
// string, blob, JSON, geometry, ENUM/SET and NULL types; every other type
// is reported as binary regardless of collation.
func (c *Column) IsBinary() bool {
	switch c.FieldType {
	case TypeString, TypeVarchar, TypeBlob, TypeMediumBlob, TypeTinyBlob,
		TypeLongBlob, TypeGeometry, TypeJSON, TypeEnum, TypeSet, TypeNull:
		return c.CollationID == collation.Binary
	default:
		return true
	}
}

// VarcharLenBytes returns how many length-header bytes a VARCHAR of this
// declared char length needs on disk: 1 below 256, else 2.
func (c *Column) VarcharLenBytes() uint32 {
	if c.CharLength < 256 {
		return 1
	}
	return 2
}

var dig2bytes = [10]uint32{0, 1, 1, 2, 2, 3, 3, 4, 4, 4}

// PackLength computes the on-disk byte width of the column's logical
// value, independent of nullability. The physical builder feeds this into
// ColLen.
func (c *Column) PackLength() uint32 {
	switch c.FieldType {
	case TypeVarString, TypeString:
		return c.CharLength
	case TypeVarchar:
		return c.VarcharLenBytes() + c.CharLength
	case TypeBlob:
		return 2 + 8
	case TypeMediumBlob:
		return 3 + 8
	case TypeTinyBlob:
		return 1 + 8
	case TypeLongBlob, TypeGeometry, TypeJSON:
		return 4 + 8
	case TypeEnum:
		if c.ElementsSize < 256 {
			return 1
		}
		return 2
	case TypeSet:
		n := (c.ElementsSize + 7) / 8
		if n > 4 {
			return 8
		}
		return n
	case TypeDecimal:
		return c.CharLength
	case TypeNewDecimal:
		precision := c.NumericPrecision
		scale := c.NumericScale
		intg := precision - scale
		intg0 := intg / 9
		frac0 := scale / 9
		intg0x := intg - intg0*9
		frac0x := scale - frac0*9
		return intg0*4 + dig2bytes[intg0x] + frac0*4 + dig2bytes[frac0x]
	case TypeFloat:
		return 4
	case TypeDouble:
		return 8
	case TypeTiny:
		return 1
	case TypeShort:
		return 2
	case TypeInt24:
		return 3
	case TypeLong:
		return 4
	case TypeLongLong:
		return 8
	case TypeTimestamp:
		return c.CharLength
	case TypeTimestamp2:
		return 4 + (c.DatetimePrecision+1)/2
	case TypeYear:
		return 1
	case TypeNewDate:
		return 3
	case TypeTime:
		return 3
	case TypeTime2:
		return 3 + (c.DatetimePrecision+1)/2
	case TypeDatetime:
		return 8
	case TypeDatetime2:
		return 5 + (c.DatetimePrecision+1)/2
	case TypeNull:
		return 0
	case TypeBit:
		return (c.CharLength + 7) / 8
	default:
		return c.CharLength
	}
}

// GetFixedSize returns ColLen when the storage type is fixed-width for the
// engine, else 0 (meaning variable-length). MYSQL-charset columns are
// fixed-width only when the collation's minimum and maximum byte widths
// coincide.
func (c *Column) GetFixedSize() uint32 {
	switch c.Mtype {
	case DataSys, DataChar, DataFixbinary, DataInt, DataFloat, DataDouble, DataPoint:
		return c.ColLen
	case DataMysql:
		if c.IsBinary() {
			return c.ColLen
		}
		w := collation.Lookup(c.CollationID)
		if w.Min == w.Max {
			return c.ColLen
		}
		return 0
	default:
		return 0
	}
}

// IsBigCol reports whether the column needs a 2-byte variable-length
// header (length > 255, or an inherently "big" storage type).
func (c *Column) IsBigCol() bool {
	return c.ColLen > 255 || c.Mtype == DataBlob || c.Mtype == DataVarPoint || c.Mtype == DataGeometry
}

// IsColumnAdded reports whether se_private_data carries version_added,
// i.e. the column was added via INSTANT ADD at some point.
func (c *Column) IsColumnAdded() bool { return c.SePrivateData.Exists("version_added") }

// IsColumnDropped reports whether se_private_data carries version_dropped.
func (c *Column) IsColumnDropped() bool { return c.SePrivateData.Exists("version_dropped") }

// IsInstantAdded reports whether VersionAdded is defined and nonzero.
func (c *Column) IsInstantAdded() bool {
	return c.VersionAdded != Undefined && c.VersionAdded > 0
}

// IsInstantDropped reports whether VersionDropped is defined and nonzero.
func (c *Column) IsInstantDropped() bool {
	return c.VersionDropped != Undefined && c.VersionDropped > 0
}

// IsDroppedInOrBefore reports whether this column was dropped at or before
// row version v.
func (c *Column) IsDroppedInOrBefore(v uint32) bool {
	if !c.IsInstantDropped() {
		return false
	}
	return c.VersionDropped <= v
}

// IsAddedAfter reports whether this column was added strictly after row
// version v.
func (c *Column) IsAddedAfter(v uint32) bool {
	if !c.IsInstantAdded() {
		return false
	}
	return c.VersionAdded > v
}
