package wireformat

import (
	"encoding/binary"
	"math"
)

// Minimal protobuf wire-format reader covering the three field kinds used
// by event.proto/summary.proto's scalar payloads: varint, 64-bit fixed
// (double), and length-delimited (string/bytes/embedded message). No
// protobuf runtime is wired in (§4.4.1 of the design doc) — the two message
// shapes this package needs are small and stable enough to hand-decode.

type wireType int

const (
	wireVarint          wireType = 0
	wireFixed64         wireType = 1
	wireLengthDelimited wireType = 2
	wireFixed32         wireType = 5
)

type protoField struct {
	number int
	typ    wireType
	varint uint64
	fixed  uint64
	bytes  []byte
}

// decodeFields walks a protobuf message body and returns each field
// occurrence in order. Malformed input yields a short slice rather than an
// error — callers treat an absent expected field as "no scalar data" per
// the original's EventContainsScalar check.
func decodeFields(buf []byte) []protoField {
	var fields []protoField
	i := 0
	for i < len(buf) {
		tag, n := binary.Uvarint(buf[i:])
		if n <= 0 {
			break
		}
		i += n
		fieldNum := int(tag >> 3)
		wt := wireType(tag & 0x7)

		switch wt {
		case wireVarint:
			v, n := binary.Uvarint(buf[i:])
			if n <= 0 {
				return fields
			}
			i += n
			fields = append(fields, protoField{number: fieldNum, typ: wt, varint: v})
		case wireFixed64:
			if i+8 > len(buf) {
				return fields
			}
			v := binary.LittleEndian.Uint64(buf[i : i+8])
			i += 8
			fields = append(fields, protoField{number: fieldNum, typ: wt, fixed: v})
		case wireFixed32:
			if i+4 > len(buf) {
				return fields
			}
			v := uint64(binary.LittleEndian.Uint32(buf[i : i+4]))
			i += 4
			fields = append(fields, protoField{number: fieldNum, typ: wt, fixed: v})
		case wireLengthDelimited:
			l, n := binary.Uvarint(buf[i:])
			if n <= 0 || i+n+int(l) > len(buf) {
				return fields
			}
			i += n
			fields = append(fields, protoField{number: fieldNum, typ: wt, bytes: buf[i : i+int(l)]})
			i += int(l)
		default:
			return fields
		}
	}
	return fields
}

func fieldDouble(f protoField) float64 {
	return math.Float64frombits(f.fixed)
}

func fieldFloat32(f protoField) float32 {
	return math.Float32frombits(uint32(f.fixed))
}

func fieldInt64(f protoField) int64 {
	return int64(f.varint)
}

func fieldString(f protoField) string {
	return string(f.bytes)
}

func firstField(fields []protoField, number int) (protoField, bool) {
	for _, f := range fields {
		if f.number == number {
			return f, true
		}
	}
	return protoField{}, false
}

func allFields(fields []protoField, number int) []protoField {
	var out []protoField
	for _, f := range fields {
		if f.number == number {
			out = append(out, f)
		}
	}
	return out
}
