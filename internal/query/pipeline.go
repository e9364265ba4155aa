package query

import (
	"github.com/standardbeagle/scalarviz/internal/point"
)

// GraphQuery is one entry of a GetScalarData request's graph_list (§6).
type GraphQuery struct {
	Tag    string
	File   string
	Start  uint64
	End    uint64
	Config []ConfigEntry
}

// LineResult is one built-and-materialised line of a query's response.
type LineResult struct {
	Type   LineType
	Points []point.ScalarPoint
}

// DateEntry is one entry of a query's date index (§4.8 step 5).
type DateEntry struct {
	Step  int64
	Value float32
	Date  string
}

// QueryResult is the full response for one GraphQuery.
type QueryResult struct {
	Tag        string
	File       string
	Lines      []LineResult
	DateConfig []DateEntry
}

// RunQuery executes the five-step pipeline of §4.8 for one graph query:
// build LineOps, build the lines to emit, run each line's operators in
// order, materialise, and build the date index from the first non-empty
// line.
func RunQuery(deps Deps, q GraphQuery) (QueryResult, error) {
	normalOp := NewNormalOp(q.Tag, q.File, q.Start, q.End)
	sampleOp := NewSampleOp(q.Tag, q.File, q.Start, q.End)
	tokenOp := NewTokenOp(q.Tag, q.File, q.Start, q.End)

	var smoothingOp *SmoothingOp
	tokenEnabled := false
	smoothingEnabled := false
	for _, entry := range q.Config {
		if !entry.Enable {
			continue
		}
		switch castType(entry.Type) {
		case Smoothing:
			smoothingEnabled = true
			smoothingOp = NewSmoothingOp(q.Tag, q.File, q.Start, q.End, entry)
		case Token:
			tokenEnabled = true
		}
	}
	if tokenEnabled {
		SetTokenMode(normalOp)
		if smoothingOp != nil {
			SetTokenMode(smoothingOp)
		}
	}

	var lineTypes []LineType
	if tokenEnabled {
		lineTypes = append(lineTypes, Token)
		if smoothingEnabled && smoothingOp.Valid() {
			lineTypes = append(lineTypes, TokenSmoothing)
		}
	} else {
		lineTypes = append(lineTypes, Normal)
		if smoothingEnabled && smoothingOp.Valid() {
			lineTypes = append(lineTypes, NormalSmoothing)
		}
	}

	result := QueryResult{Tag: q.Tag, File: q.File}
	for _, lt := range lineTypes {
		line := NewLine(lt, q.Tag, q.File)

		valueOp := LineOp(normalOp)
		if lt == NormalSmoothing || lt == TokenSmoothing {
			valueOp = smoothingOp
		}
		if err := valueOp.Process(line, deps); err != nil {
			return QueryResult{}, err
		}
		if err := sampleOp.Process(line, deps); err != nil {
			return QueryResult{}, err
		}
		if tokenEnabled {
			if err := tokenOp.Process(line, deps); err != nil {
				return QueryResult{}, err
			}
		}

		points, err := line.GetLineData(deps)
		if err != nil {
			return QueryResult{}, err
		}
		result.Lines = append(result.Lines, LineResult{Type: lt, Points: points})
	}

	for _, lr := range result.Lines {
		if len(lr.Points) > 0 {
			result.DateConfig = buildDateIndex(lr.Points)
			break
		}
	}
	return result, nil
}

// buildDateIndex scans points (already sorted by step) and emits one entry
// each time the YYYY-MM-DD prefix of LocalTime changes.
func buildDateIndex(points []point.ScalarPoint) []DateEntry {
	var out []DateEntry
	lastDate := ""
	for _, p := range points {
		date := p.LocalTime
		if len(date) >= dateLen {
			date = date[:dateLen]
		}
		if date != lastDate {
			out = append(out, DateEntry{Step: p.Step, Value: p.Value, Date: date})
			lastDate = date
		}
	}
	return out
}

const dateLen = len("YYYY-MM-DD")
