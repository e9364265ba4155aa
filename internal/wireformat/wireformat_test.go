package wireformat

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendVarint(buf []byte, v uint64) []byte {
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, v)
	return append(buf, tmp[:n]...)
}

func appendTag(buf []byte, field int, wt wireType) []byte {
	return appendVarint(buf, uint64(field)<<3|uint64(wt))
}

func appendLenDelimited(buf []byte, field int, payload []byte) []byte {
	buf = appendTag(buf, field, wireLengthDelimited)
	buf = appendVarint(buf, uint64(len(payload)))
	return append(buf, payload...)
}

func appendDouble(buf []byte, field int, v float64) []byte {
	buf = appendTag(buf, field, wireFixed64)
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return append(buf, b...)
}

func appendFloat32(buf []byte, field int, v float32) []byte {
	buf = appendTag(buf, field, wireFixed32)
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return append(buf, b...)
}

func appendVarintField(buf []byte, field int, v uint64) []byte {
	buf = appendTag(buf, field, wireVarint)
	return appendVarint(buf, v)
}

func appendString(buf []byte, field int, s string) []byte {
	return appendLenDelimited(buf, field, []byte(s))
}

func buildTFEventPayload(step int64, wallTime float64, tag string, value float32) []byte {
	var valueMsg []byte
	valueMsg = appendString(valueMsg, tfValueTag, tag)
	valueMsg = appendFloat32(valueMsg, tfValueSimpleValue, value)

	var summaryMsg []byte
	summaryMsg = appendLenDelimited(summaryMsg, tfSummaryValue, valueMsg)

	var event []byte
	event = appendDouble(event, tfEventWallTime, wallTime)
	event = appendVarintField(event, tfEventStep, uint64(step))
	event = appendLenDelimited(event, tfEventSummary, summaryMsg)
	return event
}

func frameRecord(payload []byte) []byte {
	var buf bytes.Buffer
	lenBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(lenBytes, uint64(len(payload)))
	buf.Write(lenBytes)
	buf.Write([]byte{0, 0, 0, 0}) // crc, unverified
	buf.Write(payload)
	buf.Write([]byte{0, 0, 0, 0}) // crc, unverified
	return buf.Bytes()
}

func TestTFEventParser_SinglePoint(t *testing.T) {
	payload := buildTFEventPayload(10, 1700000000.5, "loss", 0.42)
	data := frameRecord(payload)

	p := NewTFEventParser()
	pts, offset, err := p.Parse("", data, 0)
	require.NoError(t, err)
	require.Contains(t, pts, "loss")
	require.Len(t, pts["loss"], 1)
	assert.Equal(t, int64(10), pts["loss"][0].Step)
	assert.InDelta(t, 0.42, pts["loss"][0].Value, 0.0001)
	assert.Equal(t, uint64(len(data)), offset)
}

func TestTFEventParser_TruncatedTailNotConsumed(t *testing.T) {
	payload := buildTFEventPayload(1, 100.0, "loss", 1.0)
	data := frameRecord(payload)
	truncated := data[:len(data)-2]

	p := NewTFEventParser()
	pts, offset, err := p.Parse("", truncated, 0)
	require.NoError(t, err)
	assert.Empty(t, pts)
	assert.Equal(t, uint64(0), offset)
}

func TestTFEventParser_ResumesFromOffset(t *testing.T) {
	first := frameRecord(buildTFEventPayload(1, 1.0, "loss", 1.0))
	second := frameRecord(buildTFEventPayload(2, 2.0, "loss", 2.0))
	data := append(append([]byte{}, first...), second...)

	p := NewTFEventParser()
	pts, offset, err := p.Parse("", data, uint64(len(first)))
	require.NoError(t, err)
	require.Len(t, pts["loss"], 1)
	assert.Equal(t, int64(2), pts["loss"][0].Step)
	assert.Equal(t, uint64(len(data)), offset)
}

func TestTextLogParser_ExtractsLossAndNorm(t *testing.T) {
	line := "2024-01-02 03:04:05,678 INFO step: [12/100] loss: 1.25 global_norm: [3.5]\n"
	p := NewTextLogParser()
	pts, offset, err := p.Parse("", []byte(line), 0)
	require.NoError(t, err)
	require.Len(t, pts[TagLoss], 1)
	require.Len(t, pts[TagGlobalNorm], 1)
	assert.Equal(t, int64(12), pts[TagLoss][0].Step)
	assert.InDelta(t, 1.25, pts[TagLoss][0].Value, 0.0001)
	assert.InDelta(t, 3.5, pts[TagGlobalNorm][0].Value, 0.0001)
	assert.Equal(t, uint64(len(line)), offset)
}

func TestTextLogParser_SkipsLinesWithoutStep(t *testing.T) {
	line := "2024-01-02 03:04:05,678 INFO starting up\n"
	p := NewTextLogParser()
	pts, offset, err := p.Parse("", []byte(line), 0)
	require.NoError(t, err)
	assert.Empty(t, pts)
	assert.Equal(t, uint64(len(line)), offset)
}

func TestTextLogParser_LeavesPartialFinalLine(t *testing.T) {
	data := []byte("step: [1/10] loss: 0.5\nstep: [2/10] loss")
	p := NewTextLogParser()
	pts, offset, err := p.Parse("", data, 0)
	require.NoError(t, err)
	require.Len(t, pts[TagLoss], 1)
	assert.Less(t, offset, uint64(len(data)))
}

func TestDetectGlobalBatchSize(t *testing.T) {
	data := []byte("setting up run\nglobal_batch_size = 256\n")
	v, ok := DetectGlobalBatchSize(data)
	require.True(t, ok)
	assert.Equal(t, 256.0, v)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatTFEvent, DetectFormat("/runs/exp1/events.out.tfevents.123"))
	assert.Equal(t, FormatSummary, DetectFormat("/runs/exp1/summary.001"))
	assert.Equal(t, FormatTextLog, DetectFormat("/runs/exp1/train.log"))
	assert.Equal(t, FormatUnknown, DetectFormat("/runs/exp1/checkpoint.bin"))
}

func TestNewParser(t *testing.T) {
	assert.IsType(t, &TFEventParser{}, NewParser(FormatTFEvent))
	assert.IsType(t, &SummaryParser{}, NewParser(FormatSummary))
	assert.IsType(t, &TextLogParser{}, NewParser(FormatTextLog))
	assert.Nil(t, NewParser(FormatUnknown))
}
