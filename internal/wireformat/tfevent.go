package wireformat

import "github.com/standardbeagle/scalarviz/internal/point"

// event.proto field numbers (tensorboard.Event):
//
//	1  wall_time (double)
//	2  step (int64)
//	5  summary (Summary message)
//
// summary.proto field numbers (tensorboard.Summary / Summary.Value):
//
//	Summary.value  = 1 (repeated Value)
//	Value.tag      = 1 (string)
//	Value.simple_value = 2 (float, the oneof arm this parser cares about)
const (
	tfEventWallTime = 1
	tfEventStep     = 2
	tfEventSummary  = 5

	tfSummaryValue     = 1
	tfValueTag         = 1
	tfValueSimpleValue = 2
)

// TFEventParser decodes TensorBoard-style length-prefixed Event records.
type TFEventParser struct{}

func NewTFEventParser() *TFEventParser { return &TFEventParser{} }

func (p *TFEventParser) Format() Format { return FormatTFEvent }

func (p *TFEventParser) Parse(path string, data []byte, offset uint64) (map[string][]point.ScalarPoint, uint64, error) {
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
		summaryField, ok := firstField(fields, tfEventSummary)
		if !ok {
			continue
		}
		stepField, hasStep := firstField(fields, tfEventStep)
		wallField, hasWall := firstField(fields, tfEventWallTime)
		if !hasStep || !hasWall {
			continue
		}
		step := fieldInt64(stepField)
		wallTime := fieldDouble(wallField)

		for _, valueField := range allFields(decodeFields(summaryField.bytes), tfSummaryValue) {
			valueFields := decodeFields(valueField.bytes)
			simpleValue, hasSimple := firstField(valueFields, tfValueSimpleValue)
			if !hasSimple {
				continue
			}
			tagField, hasTag := firstField(valueFields, tfValueTag)
			if !hasTag {
				continue
			}
			tag := fieldString(tagField)
			result[tag] = append(result[tag], point.New(step, fieldFloat32(simpleValue), wallTime))
		}
	}
}
