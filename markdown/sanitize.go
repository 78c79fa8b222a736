package markdown

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize strips ANSI escape codes and control characters from model
// output before it reaches the terminal. Tabs and newlines survive.
// CRLF is normalized to LF; a lone CR overwrites from the start of the
// line, as a terminal would.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' || (r > 0x1F && r != 0x7F) {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if !strings.ContainsRune(s, '\r') {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.ContainsRune(line, '\r') {
			lines[i] = overwrite(line)
		}
	}
	return strings.Join(lines, "\n")
}

// overwrite applies carriage returns within one line.
func overwrite(line string) string {
	parts := strings.Split(line, "\r")
	buf := []rune(parts[0])
	for _, part := range parts[1:] {
		for j, r := range []rune(part) {
			if j < len(buf) {
				buf[j] = r
			} else {
				buf = append(buf, r)
			}
		}
	}
	return string(buf)
}
