package offsets

import (
	"ibdninja/internal/binutil"
	"ibdninja/internal/dict"
	"ibdninja/internal/ibderr"
	"ibdninja/internal/page"
)

// Offsets is the decoded per-field offset vector for one record: a header
// carrying the record's total header length plus page/externality flags,
// and one end_offset|status word per physical field, in field order.
type Offsets struct {
	Compact     bool
	AnyExternal bool
	headerLen   uint32
	Field       []uint32
}

// HeaderLen returns the record's variable-length header size in bytes (the
// distance from the first null/length byte back to the record origin).
func (o *Offsets) HeaderLen() uint32 { return o.headerLen }

// BodyLen returns the total byte length of the record's field data, i.e.
// the last field's end offset.
func (o *Offsets) BodyLen() uint32 {
	if len(o.Field) == 0 {
		return 0
	}
	return o.End(len(o.Field) - 1)
}

// NFields returns the number of decoded fields.
func (o *Offsets) NFields() int { return len(o.Field) }

// End returns field i's end offset within the record body, masking off the
// status bits.
func (o *Offsets) End(i int) uint32 { return o.Field[i] & page.RecOffsMask }

// Status returns field i's status nibble (NULL/EXTERNAL/DEFAULT/DROPPED).
func (o *Offsets) Status(i int) uint32 { return o.Field[i] &^ page.RecOffsMask }

func (o *Offsets) IsNull(i int) bool     { return o.Field[i]&page.RecOffsSQLNull != 0 }
func (o *Offsets) IsExternal(i int) bool { return o.Field[i]&page.RecOffsExternal != 0 }
func (o *Offsets) IsDefault(i int) bool  { return o.Field[i]&page.RecOffsDefault != 0 }
func (o *Offsets) IsDropped(i int) bool  { return o.Field[i]&page.RecOffsDrop != 0 }

// NodePointerChildPage reads the 4-byte child page number trailing a
// non-leaf record's last decoded field.
func (o *Offsets) NodePointerChildPage(buf []byte, rec int) uint32 {
	end := int(o.End(len(o.Field) - 1))
	start := rec + end - page.RecNodePtrSize
	return binutil.Read4(buf[start:])
}

// nullBitmap walks a null-bitmap bit by bit, starting at byte pos with the
// bit-0 mask, moving to the preceding byte once the mask overflows.
type nullBitmap struct {
	buf  []byte
	pos  int
	mask byte
}

func newNullBitmap(buf []byte, anchor int) *nullBitmap {
	return &nullBitmap{buf: buf, pos: anchor, mask: 1}
}

func (n *nullBitmap) next() bool {
	bit := n.buf[n.pos]&n.mask != 0
	n.mask <<= 1
	if n.mask == 0 {
		n.mask = 1
		n.pos--
	}
	return bit
}

// Compute reconstructs the offsets vector for the record at rec within idx.
// pageLevel is the owning page's B-tree level; level 0 selects the leaf
// decode path, anything higher selects the (simpler) non-leaf node-pointer
// path.
func Compute(buf []byte, rec int, idx *dict.Index, pageLevel uint32) (*Offsets, error) {
	if pageLevel > 0 {
		return computeNonLeaf(buf, rec, idx)
	}
	return computeLeaf(buf, rec, idx)
}

const stdNullAnchorOffset = page.RecNNewExtraBytes + 1

func ceilDiv8(n uint32) int {
	return int((n + 7) / 8)
}

func computeNonLeaf(buf []byte, rec int, idx *dict.Index) (*Offsets, error) {
	nFields := int(idx.NUniq) + 1
	nodePtrField := nFields - 1

	var nNullable uint32
	for i := 0; i < nodePtrField && i < len(idx.Fields); i++ {
		if idx.Fields[i].Column.Nullable {
			nNullable++
		}
	}

	nullAnchor := rec - stdNullAnchorOffset
	lensAnchor := nullAnchor - ceilDiv8(nNullable)

	o := &Offsets{Compact: true, Field: make([]uint32, nFields)}
	bitmap := newNullBitmap(buf, nullAnchor)
	lensPos := lensAnchor
	var offs uint32

	for i := 0; i < nFields; i++ {
		if i == nodePtrField {
			offs += page.RecNodePtrSize
			o.Field[i] = offs
			continue
		}
		fi := idx.Fields[i]
		word, ext := decodeOrdinaryField(buf, fi.Column, fi.FixedLen, bitmap, &lensPos, &offs)
		if ext {
			o.AnyExternal = true
		}
		o.Field[i] = word
	}

	o.headerLen = uint32(rec - (lensPos + 1))
	return o, nil
}

func computeLeaf(buf []byte, rec int, idx *dict.Index) (*Offsets, error) {
	table := idx.Table()
	state, version := GetInsertState(buf, rec, idx)
	if err := assertState(state); err != nil {
		return nil, err
	}

	nFields := int(idx.NTotalFields)
	if nFields == 0 {
		nFields = int(idx.NFields)
	}

	nullAnchor := rec - stdNullAnchorOffset
	var nNull uint32
	nonDefaultFields := uint32(nFields)

	switch state {
	case StateNoInstantNoVersion:
		nNull = idx.NNullable
	case StateAfterInstantAddNew, StateAfterUpgradeBeforeInstantAddNew:
		nullAnchor--
		if int(version) < len(idx.Nullables) {
			nNull = idx.Nullables[version]
		} else {
			nNull = idx.NNullable
		}
	case StateAfterInstantAddOld:
		b0 := buf[nullAnchor]
		var stored uint32
		var countBytes int
		if b0&0x80 == 0 {
			stored = uint32(b0)
			countBytes = 1
		} else {
			b1 := buf[nullAnchor-1]
			stored = uint32(b0&0x7F)<<8 | uint32(b1)
			countBytes = 2
		}
		nullAnchor -= countBytes
		nNull = calculateNInstantNullable(table, idx, stored)
		nonDefaultFields = stored
	case StateBeforeInstantAddOld:
		nNull = idx.NInstantNullable
		nonDefaultFields = idx.NFields - table.GetNInstantAddCols()
	case StateBeforeInstantAddNew:
		nNull = idx.NInstantNullable
	default:
		return nil, ibderr.New(ibderr.Internal, "unhandled record insert state %v", state)
	}

	lensAnchor := nullAnchor - ceilDiv8(nNull)

	o := &Offsets{Compact: true, Field: make([]uint32, nFields)}
	bitmap := newNullBitmap(buf, nullAnchor)
	lensPos := lensAnchor
	var offs uint32

	for i := 0; i < nFields; i++ {
		fi := idx.PhysicalField(uint32(i))
		c := fi.Column

		var word uint32
		switch {
		case (state == StateAfterInstantAddNew || state == StateAfterUpgradeBeforeInstantAddNew) && c.IsDroppedInOrBefore(version):
			word = offs | page.RecOffsDrop
		case (state == StateAfterInstantAddNew || state == StateAfterUpgradeBeforeInstantAddNew) && c.IsAddedAfter(version):
			word = instantOffset(c, offs)
		case (state == StateAfterInstantAddOld || state == StateBeforeInstantAddOld) && uint32(i) >= nonDefaultFields:
			word = instantOffset(c, offs)
		default:
			var ext bool
			word, ext = decodeOrdinaryField(buf, c, fi.FixedLen, bitmap, &lensPos, &offs)
			if ext {
				o.AnyExternal = true
			}
		}
		o.Field[i] = word
	}

	o.headerLen = uint32(rec - (lensPos + 1))
	return o, nil
}

// decodeOrdinaryField applies the standard null-bit / fixed-length /
// variable-length decode shared by leaf and non-leaf records.
func decodeOrdinaryField(buf []byte, c *dict.Column, fixedLen uint32, bitmap *nullBitmap, lensPos *int, offs *uint32) (word uint32, external bool) {
	if c.Nullable {
		isNull := bitmap.next()
		if isNull {
			return *offs | page.RecOffsSQLNull, false
		}
	}
	if fixedLen > 0 {
		*offs += fixedLen
		return *offs, false
	}
	return decodeVarLen(buf, c, lensPos, offs)
}

func decodeVarLen(buf []byte, c *dict.Column, lensPos *int, offs *uint32) (uint32, bool) {
	b1 := buf[*lensPos]
	*lensPos--
	var length uint32
	var external bool
	if c.IsBigCol() && b1&0x80 != 0 {
		b2 := buf[*lensPos]
		*lensPos--
		length = uint32(b1&0x3F)<<8 | uint32(b2)
		external = b1&0x40 != 0
	} else {
		length = uint32(b1)
	}
	*offs += length
	word := *offs
	if external {
		word |= page.RecOffsExternal
	}
	return word, external
}

// instantOffset yields the status word for a field whose physical bytes are
// not present in this record: DEFAULT when the column carries a stored
// instant default, NULL otherwise. Neither consumes record bytes.
func instantOffset(c *dict.Column, offs uint32) uint32 {
	if c.InstantDefault {
		return offs | page.RecOffsDefault
	}
	return offs | page.RecOffsSQLNull
}

// calculateNInstantNullable computes the nullable-bitmap width implied by a
// record whose stored-field-count is nFields, in both the row-versioned and
// legacy-instant regimes.
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
