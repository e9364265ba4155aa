package engine

import (
	"os"

	scverrors "github.com/standardbeagle/scalarviz/internal/errors"
	"github.com/standardbeagle/scalarviz/internal/store"
	"github.com/standardbeagle/scalarviz/internal/wireformat"
)

// runParse reads nf's file tail from its current offset, decodes newly
// available records, and commits them to the store and graph index. A
// short/partial tail at EOF is a transient condition (§7): the offset is
// left unchanged and no error is reported to the parse state. A parser
// returning scverrors.ParseError stops this run; the offset stays at the
// last committed boundary so a later write-close event retries framing
// from there. A text log's first parse pass also sniffs a
// "global_batch_size" header line before decoding records, the one-time
// metadata read wireformat.DetectGlobalBatchSize exists for.
func (e *Engine) runParse(nf *store.NormalFile) (uint64, error) {
	data, err := os.ReadFile(nf.Path())
	if err != nil {
		return nf.Offset(), scverrors.NewPathError("parse", nf.Path(), err)
	}

	offset := nf.Offset()
	if uint64(len(data)) <= offset {
		return offset, nil
	}

	parser := wireformat.NewParser(nf.DataType())
	if parser == nil {
		return offset, nil
	}

	if offset == 0 && nf.DataType() == wireformat.FormatTextLog {
		if batchSize, ok := wireformat.DetectGlobalBatchSize(data); ok {
			nf.UpdateTokenParam(batchSize, -1)
		}
	}

	tagPoints, newOffset, err := parser.Parse(nf.Path(), data, offset)
	if err != nil {
		return offset, err
	}

	// §5's cancellation contract: an in-flight parser checks the imported
	// flag before each flush and aborts cleanly without committing,
	// leaving the prior offset so a subsequent ImportFile starts fresh.
	if !nf.Imported() {
		return offset, nil
	}

	for tag, points := range tagPoints {
		if len(points) == 0 {
			continue
		}
		if err := e.store.UpdateData(nf.Path(), tag, points); err != nil {
			return offset, err
		}
		if err := e.graph.UpdateGraph(e.store, tag, nf.Path(), points); err != nil {
			return offset, err
		}
	}
	nf.SetOffset(newOffset)
	return newOffset, nil
}
