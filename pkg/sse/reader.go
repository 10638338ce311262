package sse

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxFrameSize = 1024 * 1024

var frameDelimiter = []byte("\n\n")

// Reader reads SSE frames from a source io.Reader, optionally teeing every
// raw byte it consumes to a destination io.Writer.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌─────────────────────────────────┐
// │   UTF-8 decode   │◀──│ optional destination io.Writer  │
// └──────────────────┘   └─────────────────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │  Reader.Next()   │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Frame       │
// └──────────────────┘
//
// Chunks from the source may split multi-byte characters and frame
// delimiters arbitrarily. The decoder keeps partial characters between reads
// and the scanner keeps partial frames, so the produced frames only depend on
// the byte content of the stream, never on how it was chunked.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader returns a Reader that parses SSE frames from src.
func NewReader(src io.Reader) *Reader {
	return NewTeeReader(src, nil)
}

// NewTeeReader returns a Reader that parses SSE frames from src and writes
// all raw bytes through to dest. A nil dest disables the tee.
// The dest writer typically backs a recording file for a chat session.
func NewTeeReader(src io.Reader, dest io.Writer) *Reader {
	if dest != nil {
		src = io.TeeReader(src, dest)
	}

	// UTF8BOM strips a leading byte order mark and replaces invalid
	// sequences with U+FFFD, matching a browser TextDecoder.
	decoded := transform.NewReader(src, unicode.UTF8BOM.NewDecoder())

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 64*1024), maxFrameSize)
	scanner.Split(splitFrames)

	return &Reader{
		scanner: scanner,
	}
}

// Next returns the next SSE frame carrying at least one data line. It blocks
// until a complete frame is available (terminated by a blank line).
// Next returns nil, io.EOF when the source is exhausted. A trailing frame
// without a delimiter is discarded.
func (r *Reader) Next() (*Frame, error) {
	for r.scanner.Scan() {
		frame := parseFrame(r.scanner.Text())

		// Frames without data (comments, keep-alives, bare event: lines)
		// carry nothing for the caller.
		if len(frame.Data) == 0 {
			continue
		}

		return frame, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	return nil, io.EOF
}

// splitFrames is a bufio.SplitFunc yielding the text between consecutive
// frame delimiters.
func splitFrames(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.Index(data, frameDelimiter); i >= 0 {
		return i + len(frameDelimiter), data[:i], nil
	}

	if atEOF && len(data) > 0 {
		// Consume the incomplete frame without emitting it.
		return len(data), nil, nil
	}

	// Request more data.
	return 0, nil, nil
}
