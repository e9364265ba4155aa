package wireformat

import "github.com/standardbeagle/scalarviz/internal/point"

// mindspore_summary.proto field numbers (mindspore.irpb.Event / Summary):
// the message shape mirrors tensorboard's event.proto but the scalar value
// lives in its own oneof arm (scalar_value) rather than reusing
// simple_value, so the field numbers differ.
const (
	msEventWallTime = 1
	msEventStep     = 2
	msEventSummary  = 5

	msSummaryValue = 1
	msValueTag     = 1
	msValueScalar  = 4
)

// SummaryParser decodes MindSpore-style length-prefixed Event records.
type SummaryParser struct{}

func NewSummaryParser() *SummaryParser { return &SummaryParser{} }

func (p *SummaryParser) Format() Format { return FormatSummary }

func (p *SummaryParser) Parse(path string, data []byte, offset uint64) (map[string][]point.ScalarPoint, uint64, error) {
	result := make(map[string][]point.ScalarPoint)
	for {
		payload, next, ok, err := readFrame(data, offset, path)
		if err != nil {
			return result, offset, err
		}
		if !ok {
			return result, offset, nil
		}
		offset = next

		fields := decodeFields(payload)
		summaryField, ok := firstField(fields, msEventSummary)
		if !ok {
			continue
		}
		stepField, hasStep := firstField(fields, msEventStep)
		wallField, hasWall := firstField(fields, msEventWallTime)
		if !hasStep || !hasWall {
			continue
		}
		step := fieldInt64(stepField)
		wallTime := fieldDouble(wallField)

		for _, valueField := range allFields(decodeFields(summaryField.bytes), msSummaryValue) {
			valueFields := decodeFields(valueField.bytes)
			scalarValue, hasScalar := firstField(valueFields, msValueScalar)
			if !hasScalar {
				continue
			}
			tagField, hasTag := firstField(valueFields, msValueTag)
			if !hasTag {
				continue
			}
			tag := fieldString(tagField)
			result[tag] = append(result[tag], point.New(step, fieldFloat32(scalarValue), wallTime))
		}
	}
}
