// Package output renders the inspector's findings through a small Formatter
// interface behind a name-keyed factory.
package output

import (
	"ibdninja/internal/dict"
	"ibdninja/internal/walker"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatHuman   Format = "human"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// TableRef is one row of a table listing.
type TableRef struct {
	ID         uint64
	Name       string
	SchemaName string
	Supported  bool
	Reason     string
}

// TableListReport is the payload for the "list tables" action.
type TableListReport struct {
	Tables []TableRef
}

// LevelPage is one level's leftmost page, as reported by the "show levels"
// action.
type LevelPage struct {
	Level  uint32
	PageNo uint32
}

// LevelsReport is the payload for the "show index levels" action.
type LevelsReport struct {
	IndexName string
	Levels    []LevelPage
}

// IndexReport is one index's full walk: its rolled-up statistics plus,
// when requested, every decoded record keyed by page number.
type IndexReport struct {
	IndexName string
	Stats     *walker.IndexStats
	Records   map[uint32][]walker.RecordDump // nil unless per-record detail was requested
}

// TableReport is the payload for the "analyze table" action: one
// IndexReport per supported index.
type TableReport struct {
	TableName string
	Indexes   []IndexReport
}

// PageReport is the payload for the "parse page" action: a single page,
// outside the context of any particular index walk.
type PageReport struct {
	PageNo  uint32
	Stats   *walker.PageStats
	Records []walker.RecordDump // nil unless per-record detail was requested
}

// DescribeReport is the payload for the "describe" action: an approximate
// CREATE TABLE reconstruction.
type DescribeReport struct {
	TableName string
	DDL       string
}

// DumpReport is the payload for the "dump" action: the full decoded
// dictionary model for one table, columns and indexes alike, physical
// fields included. Intended for debugging a table that parses oddly, the
// same role a recursive object dump plays in the source engine.
type DumpReport struct {
	TableName string
	Table     *dict.Table
}

// Formatter renders the report types this package defines into text.
type Formatter interface {
	FormatTableList(*TableListReport) (string, error)
	FormatLevels(*LevelsReport) (string, error)
	FormatTable(*TableReport) (string, error)
	FormatIndex(*IndexReport) (string, error)
	FormatPage(*PageReport) (string, error)
	FormatDescribe(*DescribeReport) (string, error)
	FormatDump(*DumpReport) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name. If
// no format is specified, defaults to the human-readable format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(normalizeFormatName(name))
	switch format {
	case "", FormatHuman:
		return humanFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, unsupportedFormatError(name)
	}
}
