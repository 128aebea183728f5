package mcp

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// LineReader splits a stream into newline-delimited messages. Lines have no
// maximum length.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader returns a LineReader reading from r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next line without its "\n" terminator; a trailing "\r"
// is kept so the line is forwarded exactly as received. A final line
// without a terminator is returned before io.EOF. The returned slice is
// owned by the caller.
func (l *LineReader) Next() ([]byte, error) {
	line, err := l.r.ReadBytes('\n')
	if len(line) > 0 {
		if line[len(line)-1] == '\n' {
			line = line[:len(line)-1]
		}
		return line, nil
	}
	if err == nil {
		return line, nil
	}
	return nil, err
}

// LineWriter writes newline-terminated messages. WriteLine is safe for
// concurrent use; each call reaches the underlying writer as a single
// contiguous write.
type LineWriter struct {
	mu  sync.Mutex
	w   io.Writer
	buf bytes.Buffer
}

// NewLineWriter returns a LineWriter writing to w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: w}
}

// WriteLine writes msg followed by "\n".
func (l *LineWriter) WriteLine(msg []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf.Reset()
	l.buf.Grow(len(msg) + 1)
	l.buf.Write(msg)
	l.buf.WriteByte('\n')
	_, err := l.w.Write(l.buf.Bytes())
	return err
}
