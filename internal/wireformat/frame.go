package wireformat

import (
	"encoding/binary"

	scverrors "github.com/standardbeagle/scalarviz/internal/errors"
)

// frameLayout is shared by TFEvent and MindSpore Summary files:
//
//	| length (uint64 LE) | crc32 (uint32 LE) | payload (length bytes) | crc32 (uint32 LE) |
//
// Both CRCs are skipped, never verified (§9 Open Question #1): a truncated
// write-in-progress tail is far more common than on-disk corruption for
// training-job log files, and the offset-retry behavior on a short read
// already covers that case without needing to distinguish "corrupt" from
// "not written yet".
const (
	lengthFieldSize = 8
	crcFieldSize    = 4
)

// readFrame reads one length-prefixed-checksummed record starting at
// offset. It returns ok=false without error when fewer bytes remain than a
// complete frame needs — the caller leaves offset unchanged and retries on
// the next write-close event, per the TransientError contract in §7.
func readFrame(data []byte, offset uint64, path string) (payload []byte, newOffset uint64, ok bool, err error) {
	if offset+lengthFieldSize+crcFieldSize > uint64(len(data)) {
		return nil, offset, false, nil
	}
	length := binary.LittleEndian.Uint64(data[offset : offset+lengthFieldSize])
	pos := offset + lengthFieldSize + crcFieldSize

	remaining := uint64(len(data)) - pos
	if length > remaining {
		// Either a truncated in-progress write or a corrupt length field.
		// A length more than 4 GiB past the end of the data is a ParseError;
		// anything shorter is treated as "not fully written yet" and
		// retried later.
		if length > remaining+(1<<32) {
			return nil, offset, false, scverrors.NewParseError(path, offset, errFrameTooLarge)
		}
		return nil, offset, false, nil
	}
	if remaining-length < crcFieldSize {
		return nil, offset, false, nil
	}

	payload = data[pos : pos+length]
	newOffset = pos + length + crcFieldSize
	return payload, newOffset, true, nil
}

var errFrameTooLarge = frameError("record length exceeds remaining file data")

type frameError string

func (e frameError) Error() string { return string(e) }
