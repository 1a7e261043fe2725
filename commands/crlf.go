package commands

import (
	"io"
)

// crlfWriter turns bare line feeds into CRLF. Output processing is off while
// the terminal is raw so a lone "\n" wouldn't return the cursor.
type crlfWriter struct {
	w      io.Writer
	lastCR bool
}

func newCRLFWriter(w io.Writer) *crlfWriter {
	if cw, ok := w.(*crlfWriter); ok {
		return cw
	}
	return &crlfWriter{w: w}
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for _, b := range p {
		if b == '\n' && !c.lastCR {
			out = append(out, '\r')
		}
		out = append(out, b)
		c.lastCR = b == '\r'
	}

	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
