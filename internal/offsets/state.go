// Package offsets implements the record offset engine: given an Index and a
// pointer to a record on a page, it reconstructs the per-field end-offset
// vector the rest of the inspector walks. Every other component either feeds
// it (dictionary model, physical layout) or consumes its output (the page
// walker).
package offsets

import (
	"ibdninja/internal/dict"
	"ibdninja/internal/ibderr"
	"ibdninja/internal/page"
	"ibdninja/internal/recutil"
)

// InsertState is the six-way classification of a leaf record's instant-add
// / row-version history, decided from two flag bits in its info-bits byte.
type InsertState int

const (
	// StateNone must never escape GetInsertState; its presence signals a
	// classifier bug.
	StateNone InsertState = iota
	StateNoInstantNoVersion
	StateAfterInstantAddNew
	StateAfterUpgradeBeforeInstantAddNew
	StateAfterInstantAddOld
	StateBeforeInstantAddOld
	StateBeforeInstantAddNew
)

func (s InsertState) String() string {
	switch s {
	case StateNoInstantNoVersion:
		return "NO_INSTANT_NO_VERSION"
	case StateAfterInstantAddNew:
		return "AFTER_INSTANT_ADD_NEW"
	case StateAfterUpgradeBeforeInstantAddNew:
		return "AFTER_UPGRADE_BEFORE_INSTANT_ADD_NEW"
	case StateAfterInstantAddOld:
		return "AFTER_INSTANT_ADD_OLD"
	case StateBeforeInstantAddOld:
		return "BEFORE_INSTANT_ADD_OLD"
	case StateBeforeInstantAddNew:
		return "BEFORE_INSTANT_ADD_NEW"
	default:
		return "NONE"
	}
}

// GetInsertState classifies the leaf record at rec. It never returns
// StateNone: every record on a supported page maps to exactly one of the
// six states.
func GetInsertState(buf []byte, rec int, idx *dict.Index) (state InsertState, version uint32) {
	if !idx.IsClustered() || (!idx.RowVersions && !idx.InstantCols) {
		return StateNoInstantNoVersion, 0
	}

	info := recutil.InfoBits(buf, rec)
	hasVersion := info&page.RecInfoVersionFlag != 0
	hasInstant := info&page.RecInfoInstantFlag != 0

	switch {
	case hasVersion:
		v := uint32(buf[rec-(page.RecNewInfoBits+1)])
		if v == 0 {
			return StateAfterUpgradeBeforeInstantAddNew, 0
		}
		return StateAfterInstantAddNew, v
	case hasInstant && idx.InstantCols:
		return StateAfterInstantAddOld, 0
	case idx.InstantCols:
		return StateBeforeInstantAddOld, 0
	default:
		return StateBeforeInstantAddNew, 0
	}
}

// assertState is called wherever a switch over InsertState must be
// exhaustive; reaching it is an Internal bug, not bad input.
func assertState(s InsertState) error {
	if s == StateNone {
		return ibderr.New(ibderr.Internal, "record insert state resolved to NONE")
	}
	return nil
}
