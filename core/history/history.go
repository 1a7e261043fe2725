// Package history keeps the ordered record of submitted lines.
package history

import (
	"io"
	"strings"
)

// Log is an append-only record of input lines in submission order.
//
// The zero value is ready to use. A Log is owned by a single shell and is not
// safe for concurrent use.
type Log struct {
	lines []string
}

// Record appends line exactly as it was typed, even if it's empty.
func (l *Log) Record(line string) {
	l.lines = append(l.lines, line)
}

// Len gets the number of recorded lines.
func (l *Log) Len() int {
	return len(l.lines)
}

// Lines returns a copy of the recorded lines, oldest first.
func (l *Log) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// RenderAll writes every line, oldest first, each followed by "\r\n" because
// the terminal doesn't translate newlines in raw mode.
func (l *Log) RenderAll(w io.Writer) error {
	var sb strings.Builder
	for _, line := range l.lines {
		sb.WriteString(line)
		sb.WriteString("\r\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
