package watch

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/dyluth/easel/pkg/board"
)

// Scanner reads board events from a text/event-stream body.
//
// Frames are separated by blank lines. "event:" names the event and "data:"
// lines carry its JSON payload; several data lines are joined with newlines.
// Comment lines and unknown fields are skipped.
type Scanner struct {
	reader  *bufio.Reader
	current board.Event
	err     error
}

// NewScanner creates a scanner over r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances to the next event. It returns false at the end of the stream
// or on error; Err tells the two apart.
func (s *Scanner) Next() bool {
	s.current = board.Event{}
	if s.err != nil {
		return false
	}

	var eventType string
	var data []string

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			s.err = err
			if err == io.EOF && len(data) > 0 {
				s.emit(eventType, data)
				return true
			}
			return false
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if len(data) > 0 {
				s.emit(eventType, data)
				return true
			}
			eventType = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			eventType = value
		case "data":
			data = append(data, value)
		}
	}
}

func (s *Scanner) emit(eventType string, data []string) {
	s.current = board.Event{
		Type: board.EventType(eventType),
		Data: json.RawMessage(strings.Join(data, "\n")),
	}
}

// Event returns the event read by the last successful Next.
func (s *Scanner) Event() board.Event {
	return s.current
}

// Err returns the error that stopped the scanner, or nil at a clean end of
// stream.
func (s *Scanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
