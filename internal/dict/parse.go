package dict

import (
	"encoding/json"

	"ibdninja/internal/ibderr"
)

// wireColumn mirrors one entry of dd_object.columns[] in the SDI JSON.
type wireColumn struct {
	Name              string `json:"name"`
	Type              int    `json:"type"`
	IsNullable        bool   `json:"is_nullable"`
	IsVirtual         bool   `json:"is_virtual"`
	Hidden            int    `json:"hidden"`
	OrdinalPosition   uint32 `json:"ordinal_position"`
	CharLength        uint32 `json:"char_length"`
	NumericPrecision  uint32 `json:"numeric_precision"`
	NumericScale      uint32 `json:"numeric_scale"`
	DatetimePrecision uint32 `json:"datetime_precision"`
	DefaultValue      string `json:"default_value"`
	DefaultValueUTF8  string `json:"default_value_utf8"`
	CollationID       int    `json:"collation_id"`
	Options           string `json:"options"`
	SePrivateData     string `json:"se_private_data"`
	Elements          []json.RawMessage `json:"elements"`
}

// wireIndexElement mirrors one entry of dd_object.indexes[].elements[].
type wireIndexElement struct {
	OrdinalPosition uint32 `json:"ordinal_position"`
	Length          uint32 `json:"length"`
	Order           uint32 `json:"order"`
	Hidden          bool   `json:"hidden"`
	ColumnOpx       uint32 `json:"column_opx"`
}

// wireIndex mirrors one entry of dd_object.indexes[].
type wireIndex struct {
	Name          string             `json:"name"`
	Hidden        bool               `json:"hidden"`
	Type          uint32             `json:"type"`
	Elements      []wireIndexElement `json:"elements"`
	Options       string             `json:"options"`
	SePrivateData string             `json:"se_private_data"`
}

// wireTable mirrors dd_object for a "Table" SDI document.
type wireTable struct {
	Name            string      `json:"name"`
	Schema          string      `json:"schema_name"`
	MysqlVersionID  uint64      `json:"mysql_version_id"`
	Created         uint64      `json:"created"`
	LastAltered     uint64      `json:"last_altered"`
	Hidden          int         `json:"hidden"`
	Options         string      `json:"options"`
	SePrivateData   string      `json:"se_private_data"`
	RowFormat       int         `json:"row_format"`
	PartitionType   int         `json:"partition_type"`
	SEPrivateID     uint64      `json:"se_private_id"`
	Columns         []wireColumn `json:"columns"`
	Indexes         []wireIndex  `json:"indexes"`
}

// ParseTable converts one SDI "Table" document's dd_object payload into the
// logical dictionary model. It does not run the physical builder; callers
// pass the result to the physical package for that.
func ParseTable(raw json.RawMessage) (*Table, error) {
	var wt wireTable
	if err := json.Unmarshal(raw, &wt); err != nil {
		return nil, ibderr.Wrap(ibderr.CorruptSDI, err, "parse dd_object as Table")
	}

	opts, err := ParseProperties(wt.Options)
	if err != nil {
		return nil, err
	}
	sePriv, err := ParseProperties(wt.SePrivateData)
	if err != nil {
		return nil, err
	}

	t := &Table{
		Name:           wt.Name,
		SchemaName:     wt.Schema,
		MysqlVersionID: wt.MysqlVersionID,
		Created:        wt.Created,
		LastAltered:    wt.LastAltered,
		Hidden:         HiddenType(wt.Hidden),
		Options:        opts,
		SePrivateData:  sePriv,
		RowFormat:      RowFormat(wt.RowFormat),
		PartitionType:  PartitionType(wt.PartitionType),
		SEPrivateID:    wt.SEPrivateID,
	}

	for _, wc := range wt.Columns {
		col, err := parseColumn(wc)
		if err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, col)
	}

	for _, wi := range wt.Indexes {
		idx, err := parseIndex(wi, t)
		if err != nil {
			return nil, err
		}
		t.Indexes = append(t.Indexes, idx)
	}

	// Detect row-versioning and legacy instant-add markers up front so
	// the physical builder and offset engine can branch on them.
	for _, c := range t.Columns {
		if c.SePrivateData.Exists("physical_pos") {
			t.hasRowVersionsFlag = true
		}
	}
	if t.SePrivateData.Exists("instant_col") {
		t.hasInstantColsFlag = true
	}
	if t.hasRowVersionsFlag {
		for _, c := range t.Columns {
			if c.IsColumnAdded() || c.IsColumnDropped() {
				t.hasInstantColsFlag = true
				break
			}
		}
	}

	return t, nil
}

func parseColumn(wc wireColumn) (*Column, error) {
	opts, err := ParseProperties(wc.Options)
	if err != nil {
		return nil, err
	}
	sePriv, err := ParseProperties(wc.SePrivateData)
	if err != nil {
		return nil, err
	}
	c := &Column{
		Name:              wc.Name,
		FieldType:         FieldType(wc.Type),
		Nullable:          wc.IsNullable,
		Virtual:           wc.IsVirtual,
		Hidden:            HiddenType(wc.Hidden),
		OrdinalPosition:   wc.OrdinalPosition,
		CharLength:        wc.CharLength,
		NumericPrecision:  wc.NumericPrecision,
		NumericScale:      wc.NumericScale,
		DatetimePrecision: wc.DatetimePrecision,
		DefaultValue:      wc.DefaultValue,
		DefaultValueUTF8:  wc.DefaultValueUTF8,
		CollationID:       wc.CollationID,
		ElementsSize:      uint32(len(wc.Elements)),
		Options:           opts,
		SePrivateData:     sePriv,
		VersionAdded:      Undefined,
		VersionDropped:    Undefined,
		PhysicalPos:       Undefined,
	}
	if v, ok := sePriv.GetUint("version_added"); ok {
		c.VersionAdded = uint32(v)
	}
	if v, ok := sePriv.GetUint("version_dropped"); ok {
		c.VersionDropped = uint32(v)
	}
	return c, nil
}

func parseIndex(wi wireIndex, table *Table) (*Index, error) {
	opts, err := ParseProperties(wi.Options)
	if err != nil {
		return nil, err
	}
	sePriv, err := ParseProperties(wi.SePrivateData)
	if err != nil {
		return nil, err
	}
	idx := &Index{
		Name:          wi.Name,
		Hidden:        wi.Hidden,
		DDType:        wi.Type,
		Options:       opts,
		SePrivateData: sePriv,
		table:         table,
	}
	for _, we := range wi.Elements {
		if int(we.ColumnOpx) >= len(table.Columns) {
			return nil, ibderr.New(ibderr.CorruptSDI, "index %q element references out-of-range column_opx %d", wi.Name, we.ColumnOpx)
		}
		idx.Fields = append(idx.Fields, &IndexColumn{
			Column:    table.Columns[we.ColumnOpx],
			Length:    we.Length,
			Order:     we.Order,
			Hidden:    we.Hidden,
			ColumnOpx: we.ColumnOpx,
		})
	}
	if v, ok := sePriv.GetUint("id"); ok {
		idx.ID = v
	}
	if v, ok := sePriv.GetUint("root"); ok {
		idx.RootPage = uint32(v)
	}
	return idx, nil
}
