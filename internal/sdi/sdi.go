// Package sdi walks the Serialized Dictionary Information B-tree embedded
// in a tablespace and reconstructs the JSON documents it carries, one per
// table (or tablespace) recorded in the dictionary.
package sdi

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"io"

	"ibdninja/internal/binutil"
	"ibdninja/internal/ibderr"
	"ibdninja/internal/page"
	"ibdninja/internal/recutil"
	"ibdninja/internal/tablespace"
)

// Document is one decoded SDI Table record. Read discards Tablespace
// documents, so every Document it returns describes a table.
type Document struct {
	ObjectType      string
	MysqldVersionID uint64
	DDVersion       uint64
	SDIVersion      uint64
	Object          json.RawMessage
}

// fixed SDI record field offsets, relative to the record origin.
const (
	recOffType       = 0
	recOffID         = 4
	recOffTrxID      = 12
	recOffRollPtr    = 18
	recOffUncompLen  = 25
	recOffCompLen    = 29
	recOffVarcharLen = 33

	recMinHeaderSize = page.RecNNewExtraBytes // 5
)

// Read descends the SDI tree rooted at ts.SDIRootPage, iterates every leaf
// record in on-disk order, and returns the decoded documents.
func Read(ts *tablespace.Tablespace) ([]Document, error) {
	leafPageNo, err := descendToLeftmostLeaf(ts, ts.SDIRootPage())
	if err != nil {
		return nil, err
	}

	var docs []Document
	pageNo := leafPageNo
	for pageNo != page.PageEnd {
		buf, err := ts.ReadPage(pageNo)
		if err != nil {
			return nil, err
		}
		hdr := decodeAndCheckLeaf(buf)
		if hdr.typ != page.FilPageSDI {
			return nil, ibderr.New(ibderr.CorruptPage, "page %d is not a SDI page (type=%d)", pageNo, hdr.typ)
		}

		rec, err := recutil.FirstUserRec(buf)
		if err != nil {
			return nil, err
		}
		for rec >= 0 {
			if !recutil.IsDeleted(buf, rec) {
				raw, err := parseRecordPayload(ts, buf, rec)
				if err != nil {
					return nil, err
				}
				doc, ok, err := decodeDocument(raw)
				if err != nil {
					return nil, err
				}
				if ok {
					docs = append(docs, doc)
				}
			}
			rec, err = recutil.NextUserRec(buf, rec)
			if err != nil {
				return nil, err
			}
		}

		pageNo = hdr.next
	}

	return docs, nil
}

type pageInfo struct {
	typ   uint32
	level uint32
	next  uint32
}

func decodeAndCheckLeaf(buf []byte) pageInfo {
	h := pgHeader(buf)
	return h
}

func pgHeader(buf []byte) pageInfo {
	return pageInfo{
		typ:   binutil.Read2(buf[page.FilPageType:]),
		level: binutil.Read2(buf[page.FilPageData+page.PageLevel:]),
		next:  binutil.Read4(buf[page.FilPageNext:]),
	}
}

// descendToLeftmostLeaf walks node-pointer pages from root to the leftmost
// leaf, verifying page type and strictly decreasing levels.
func descendToLeftmostLeaf(ts *tablespace.Tablespace, root uint32) (uint32, error) {
	pageNo := root
	var lastLevel int64 = -1
	for {
		buf, err := ts.ReadPage(pageNo)
		if err != nil {
			return 0, err
		}
		hdr := pgHeader(buf)
		if hdr.typ != page.FilPageSDI {
			return 0, ibderr.New(ibderr.CorruptPage, "SDI page %d has unexpected type %d", pageNo, hdr.typ)
		}
		if lastLevel >= 0 && int64(hdr.level) != lastLevel-1 {
			return 0, ibderr.New(ibderr.CorruptPage, "SDI level did not decrease by exactly one at page %d", pageNo)
		}
		lastLevel = int64(hdr.level)

		if hdr.level == 0 {
			return pageNo, nil
		}

		rec, err := recutil.FirstUserRec(buf)
		if err != nil {
			return 0, err
		}
		if rec < 0 {
			return 0, ibderr.New(ibderr.CorruptPage, "SDI non-leaf page %d has no user records", pageNo)
		}
		child := binutil.Read4(buf[rec+int(recordPayloadLen(buf, rec))-4:])
		if child <= page.SDIBlobAllowed {
			return 0, ibderr.New(ibderr.CorruptPage, "SDI non-leaf page %d points to child %d", pageNo, child)
		}
		pageNo = child
	}
}

// recordPayloadLen reads the in-page length of an SDI record's variable
// payload, not counting any externally-stored tail.
func recordPayloadLen(buf []byte, rec int) int {
	b1 := buf[rec-(recMinHeaderSize+1)]
	if b1&0x80 == 0 {
		return int(b1)
	}
	b2 := buf[rec-(recMinHeaderSize+2)]
	return int(b1&0x7F)<<8 | int(b2)
}

// parseRecordPayload reconstructs the zlib-compressed SDI payload for the
// record at rec, fetching SDI-BLOB pages when the payload is externally
// stored, and returns it inflated to the declared uncompressed length.
func parseRecordPayload(ts *tablespace.Tablespace, buf []byte, rec int) ([]byte, error) {
	b1 := buf[rec-(recMinHeaderSize+1)]
	external := b1&0xC0 == 0xC0

	var inlineLen int
	var bodyStart int
	if !external {
		inlineLen = recordPayloadLen(buf, rec)
		bodyStart = rec + recOffVarcharLen
	} else {
		b2 := buf[rec-(recMinHeaderSize+2)]
		inlineLen = int(b1&0x3F)<<8 | int(b2)
		bodyStart = rec + recOffVarcharLen
	}

	compLen := int(binutil.Read4(buf[rec+recOffCompLen:]))
	uncompLen := int(binutil.Read4(buf[rec+recOffUncompLen:]))

	compressed := make([]byte, 0, compLen)
	if !external {
		compressed = append(compressed, buf[bodyStart:bodyStart+inlineLen]...)
	} else {
		compressed = append(compressed, buf[bodyStart:bodyStart+inlineLen]...)
		externLenOff := bodyStart + inlineLen
		_ = binutil.Read4(buf[externLenOff:]) // external length, informational only
		firstBlobPage := binutil.Read4(buf[externLenOff+4:])
		blobBytes, err := fetchBlobChain(ts, firstBlobPage)
		if err != nil {
			return nil, err
		}
		compressed = append(compressed, blobBytes...)
	}

	if len(compressed) != compLen {
		return nil, ibderr.New(ibderr.CorruptSDI, "SDI record payload length %d does not match declared compressed length %d", len(compressed), compLen)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, ibderr.Wrap(ibderr.CorruptSDI, err, "open zlib stream for SDI record")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, ibderr.Wrap(ibderr.CorruptSDI, err, "inflate SDI record payload")
	}
	if len(out) != uncompLen {
		return nil, ibderr.New(ibderr.CorruptSDI, "inflated length %d does not match declared uncompressed length %d", len(out), uncompLen)
	}
	return out, nil
}

// fetchBlobChain follows SDI_BLOB pages starting at firstPage, concatenating
// each page's part_len bytes until the chain ends.
func fetchBlobChain(ts *tablespace.Tablespace, firstPage uint32) ([]byte, error) {
	var out []byte
	pageNo := firstPage
	for pageNo != page.PageEnd {
		buf, err := ts.ReadPage(pageNo)
		if err != nil {
			return nil, err
		}
		typ := binutil.Read2(buf[page.FilPageType:])
		if typ != page.FilPageSDIBlob {
			return nil, ibderr.New(ibderr.CorruptPage, "page %d in SDI blob chain has type %d, expected SDI_BLOB", pageNo, typ)
		}
		partLen := binutil.Read4(buf[page.FilPageData+page.LobHdrPartLen:])
		next := binutil.Read4(buf[page.FilPageData+page.LobHdrNextPageNo:])
		dataStart := page.FilPageData + page.LobHdrSize
		out = append(out, buf[dataStart:dataStart+int(partLen)]...)
		pageNo = next
	}
	return out, nil
}

// sdiEnvelope mirrors the fixed top-level shape every SDI JSON document
// must expose, independent of its object-specific payload.
type sdiEnvelope struct {
	DDObjectType    string          `json:"dd_object_type"`
	DDObject        json.RawMessage `json:"dd_object"`
	MysqldVersionID uint64          `json:"mysqld_version_id"`
	DDVersion       uint64          `json:"dd_version"`
	SDIVersion      uint64          `json:"sdi_version"`
}

// decodeDocument validates the inflated bytes against the required SDI
// envelope shape and discards Tablespace documents, which this inspector
// has no use for.
func decodeDocument(raw []byte) (Document, bool, error) {
	var env sdiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Document{}, false, ibderr.Wrap(ibderr.CorruptSDI, err, "parse SDI JSON document")
	}
	if env.DDObjectType != "Table" && env.DDObjectType != "Tablespace" {
		return Document{}, false, ibderr.New(ibderr.CorruptSDI, "unrecognized dd_object_type %q", env.DDObjectType)
	}
	if env.DDObject == nil {
		return Document{}, false, ibderr.New(ibderr.CorruptSDI, "SDI document missing dd_object")
	}
	if env.DDObjectType != "Table" {
		return Document{}, false, nil
	}
	return Document{
		ObjectType:      env.DDObjectType,
		MysqldVersionID: env.MysqldVersionID,
		DDVersion:       env.DDVersion,
		SDIVersion:      env.SDIVersion,
		Object:          env.DDObject,
	}, true, nil
}
