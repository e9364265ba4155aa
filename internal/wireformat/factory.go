package wireformat

import (
	"path/filepath"
	"strings"
)

// DetectFormat infers a file's wire format from its name, mirroring the
// suffix conventions TensorBoard, MindSpore Insight, and plain training
// logs each use for their event files.
func DetectFormat(path string) Format {
	base := filepath.Base(path)
	switch {
	case strings.Contains(base, "tfevents"):
		return FormatTFEvent
	case strings.HasPrefix(base, "summary."), strings.Contains(base, ".summary"):
		return FormatSummary
	case strings.HasSuffix(base, ".log"), strings.HasSuffix(base, ".txt"):
		return FormatTextLog
	default:
		return FormatUnknown
	}
}

// NewParser builds the Parser for a detected format, or nil for
// FormatUnknown.
func NewParser(format Format) Parser {
	switch format {
	case FormatTFEvent:
		return NewTFEventParser()
	case FormatSummary:
		return NewSummaryParser()
	case FormatTextLog:
		return NewTextLogParser()
	default:
		return nil
	}
}
