package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxLineBytes bounds a single log line; summaries can run long.
const maxLineBytes = 1 << 20

// Decode parses one JSON event. Unknown event types decode fine so new
// executor versions never break the consumer; unknown payload fields are
// dropped by encoding/json.
func Decode(data []byte) (TaskEvent, error) {
	var ev TaskEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return TaskEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return TaskEvent{}, fmt.Errorf("decode event: missing type")
	}
	return ev, nil
}

// ReadLog parses a JSONL event log in order. Blank lines are skipped;
// a malformed line fails the read with its line number so corrupt
// recordings are reported rather than silently truncated.
func ReadLog(r io.Reader) ([]TaskEvent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var events []TaskEvent
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		ev, err := Decode([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return events, nil
}

// Encode renders an event as one JSONL line, used by tests and the spool.
func Encode(ev TaskEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return append(data, '\n'), nil
}
