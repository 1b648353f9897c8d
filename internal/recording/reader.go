package recording

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// maxLine bounds a single recording line.
const maxLine = 1 << 20

// Reader reads a complete recording.
type Reader struct {
	scanner *bufio.Scanner
	header  Header
	line    int
}

// NewReader reads and validates the header line of r.
func NewReader(r io.Reader) (*Reader, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)

	rd := &Reader{scanner: s}
	line, err := rd.nextLine()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, err
	}

	entry, err := DecodeLine(line)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", rd.line, err)
	}
	if entry.Header == nil {
		return nil, fmt.Errorf("line %d: %w", rd.line, ErrMissingHeader)
	}
	rd.header = *entry.Header
	return rd, nil
}

// Header returns the recording header.
func (r *Reader) Header() Header { return r.header }

// Line returns the number of the last line read.
func (r *Reader) Line() int { return r.line }

// Next returns the next event. It returns io.EOF at the end of the
// recording. A malformed line yields an error wrapping ErrInvalidLine; the
// reader stays usable and the following call moves on to the next line.
func (r *Reader) Next() (Event, error) {
	line, err := r.nextLine()
	if err != nil {
		return Event{}, err
	}
	entry, err := DecodeLine(line)
	if err != nil {
		return Event{}, fmt.Errorf("line %d: %w", r.line, err)
	}
	if entry.Event == nil {
		return Event{}, fmt.Errorf("line %d: %w: unexpected header", r.line, ErrInvalidLine)
	}
	return *entry.Event, nil
}

// nextLine returns the next non-blank line.
func (r *Reader) nextLine() ([]byte, error) {
	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return nil, io.EOF
}
