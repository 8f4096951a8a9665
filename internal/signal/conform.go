package signal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"aegis/pkg/metrics"
)

// Parser turns raw bus payloads into canonical events, quarantining anything
// that does not conform. Exactly one of the two return values is non-nil.
type Parser struct {
	recorder metrics.Recorder
}

func NewParser(recorder metrics.Recorder) *Parser {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Parser{recorder: recorder}
}

func (p *Parser) Parse(raw []byte) (*Event, *QuarantineRecord) {
	if !utf8.Valid(raw) {
		return nil, p.quarantine(raw, "payload is not valid UTF-8")
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return nil, p.quarantine(raw, "payload is not a JSON object")
	}

	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, p.quarantine(raw, fmt.Sprintf("failed to decode event: %v", err))
	}

	event.Normalize()
	p.recorder.Inc(metrics.ParsedRecordsSuccessfully)
	return &event, nil
}

func (p *Parser) quarantine(raw []byte, reason string) *QuarantineRecord {
	p.recorder.Inc(metrics.ParsingFailures)
	return &QuarantineRecord{
		Timestamp:    time.Now().UTC(),
		ErrorMessage: reason,
		// Replacement-marker decode keeps arbitrary bytes storable as text.
		RawPayload: strings.ToValidUTF8(string(raw), "�"),
	}
}
