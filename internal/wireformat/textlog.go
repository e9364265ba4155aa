package wireformat

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"

	"github.com/standardbeagle/scalarviz/internal/point"
)

const (
	TagLoss       = "Loss"
	TagGlobalNorm = "global_norm"
)

var (
	textLogTimeRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}`)
	textLogStepRe = regexp.MustCompile(`step:\s*\[\s*(\d+)/\s*(\d+)\]`)
	textLogLossRe = regexp.MustCompile(`loss:\s*([-+]?\d*\.\d+|\d+)`)
	textLogNormRe = regexp.MustCompile(`global_norm:\s*\[([-+]?\d*\.\d+|\d+)`)

	globalBatchSizeRe = regexp.MustCompile(`\d+$`)
)

// TextLogParser extracts step/loss/global_norm triples from free-form
// training-job log lines. Unlike TFEventParser/SummaryParser it has no
// framing to resume from mid-record — offset is simply a byte count into
// the line-split stream, so a partial final line is never consumed.
type TextLogParser struct{}

func NewTextLogParser() *TextLogParser { return &TextLogParser{} }

func (p *TextLogParser) Format() Format { return FormatTextLog }

func (p *TextLogParser) Parse(path string, data []byte, offset uint64) (map[string][]point.ScalarPoint, uint64, error) {
	result := make(map[string][]point.ScalarPoint)
	if offset > uint64(len(data)) {
		offset = uint64(len(data))
	}

	scanner := bufio.NewScanner(bytes.NewReader(data[offset:]))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	consumed := offset
	for scanner.Scan() {
		line := scanner.Bytes()
		lineLen := uint64(len(line)) + 1 // + newline
		if consumed+lineLen > uint64(len(data)) {
			// Final line has no trailing newline yet; it may still be
			// being written. Leave it unconsumed for the next pass.
			break
		}
		parseTextLine(string(line), result)
		consumed += lineLen
	}
	return result, consumed, nil
}

func parseTextLine(line string, res map[string][]point.ScalarPoint) {
	if line == "" {
		return
	}
	if !bytes.Contains([]byte(line), []byte("step")) {
		return
	}

	var localTime string
	if m := textLogTimeRe.FindString(line); m != "" {
		localTime = m
	}

	stepMatch := textLogStepRe.FindStringSubmatch(line)
	if stepMatch == nil {
		return
	}
	step, err := strconv.ParseInt(stepMatch[1], 10, 64)
	if err != nil {
		return
	}

	if lossMatch := textLogLossRe.FindStringSubmatch(line); lossMatch != nil {
		if v, err := strconv.ParseFloat(lossMatch[1], 32); err == nil {
			res[TagLoss] = append(res[TagLoss], point.NewFromLocal(step, float32(v), localTime))
		}
	}
	if normMatch := textLogNormRe.FindStringSubmatch(line); normMatch != nil {
		if v, err := strconv.ParseFloat(normMatch[1], 32); err == nil {
			res[TagGlobalNorm] = append(res[TagGlobalNorm], point.NewFromLocal(step, float32(v), localTime))
		}
	}
}

// DetectGlobalBatchSize scans a text log's header for a "global_batch_size"
// line, mirroring LogTextParser::BeforeParse's one-time metadata sniff.
func DetectGlobalBatchSize(data []byte) (float64, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if !bytes.Contains([]byte(line), []byte("global_batch_size")) {
			continue
		}
		if m := globalBatchSizeRe.FindString(line); m != "" {
			if v, err := strconv.ParseFloat(m, 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
