package litedb

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"

	"github.com/goccy/go-json"
)

var (
	ErrExportTruncated = errors.New("export truncated by record limit; re-export the collection with a tool that does not cap the record count")
	ErrParse           = errors.New("invalid export")
)

// Record is one undecoded document of an export.
type Record = json.RawMessage

// ParseError names the collection whose export could not be decoded.
type ParseError struct {
	Collection string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s export: %v", e.Collection, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

var (
	sequenceComment = regexp.MustCompile(`(?m)^[ \t]*/\*[ \t]*\d+[ \t]*\*/[ \t]*\r?$`)
	limitExceeded   = []byte("/* Limit exceeded */")
	byteOrderMark   = []byte("\xef\xbb\xbf")
)

// Parse decodes the text export of one collection. LiteDB.Studio writes every
// document as a JSON object preceded by a "/* n */" line; when it hits its
// record cap the file ends with "/* Limit exceeded */" instead.
func Parse(collection string, content []byte) ([]Record, error) {
	content = bytes.TrimPrefix(content, byteOrderMark)
	if bytes.HasSuffix(bytes.TrimSpace(content), limitExceeded) {
		return nil, fmt.Errorf("%s: %w", collection, ErrExportTruncated)
	}

	fragments := sequenceComment.Split(string(content), -1)
	var buf bytes.Buffer
	buf.WriteByte('[')
	n := 0
	for _, fragment := range fragments {
		trimmed := bytes.TrimSpace([]byte(fragment))
		if len(trimmed) == 0 {
			continue
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(trimmed)
		n++
	}
	buf.WriteByte(']')

	records := make([]Record, 0, n)
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		return nil, &ParseError{Collection: collection, Err: err}
	}
	return records, nil
}
