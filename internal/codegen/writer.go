package codegen

import (
	"fmt"
	"strings"
)

// writer accumulates indented Python lines.
type writer struct {
	b strings.Builder
}

func (w *writer) line(depth int, format string, args ...any) {
	w.b.WriteString(strings.Repeat(indentUnit, depth))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

// block writes multi-line text at depth, keeping its relative indentation.
// Trailing blank lines are dropped; blank lines inside stay unindented.
func (w *writer) block(depth int, text string) {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n \t")
	prefix := strings.Repeat(indentUnit, depth)
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			w.b.WriteByte('\n')
			continue
		}
		w.b.WriteString(prefix)
		w.b.WriteString(strings.TrimRight(l, " \t"))
		w.b.WriteByte('\n')
	}
}

func (w *writer) String() string {
	return w.b.String()
}
