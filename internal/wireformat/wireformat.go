// Package wireformat decodes the three on-disk record formats a training
// job can emit: length-prefixed-checksummed TFEvent and MindSpore Summary
// protobuf frames, and line-delimited text logs. Each parser tracks its own
// byte offset so a partial tail from an in-progress write is retried on the
// next watch event rather than treated as corrupt.
package wireformat

import "github.com/standardbeagle/scalarviz/internal/point"

// Format identifies which on-disk record shape a file uses.
type Format string

const (
	FormatTFEvent Format = "tfevent"
	FormatSummary Format = "summary"
	FormatTextLog Format = "textlog"
	FormatUnknown Format = "unknown"
)

// Parser decodes a byte stream into tag-bucketed scalar points, tracking
// offset so interrupted reads resume cleanly.
type Parser interface {
	// Parse reads records from data starting at offset, returning newly
	// decoded points bucketed by tag and the offset to resume from on the
	// next call. Any trailing partial record is left unconsumed. path is
	// used only to annotate ParseError; it does not affect decoding.
	Parse(path string, data []byte, offset uint64) (points map[string][]point.ScalarPoint, newOffset uint64, err error)
	Format() Format
}
