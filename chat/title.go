package chat

import (
	"strings"

	"github.com/fwojciec/codey"
	"github.com/rivo/uniseg"
)

// TitleLimit is the maximum title length in grapheme clusters.
const TitleLimit = 40

// Title derives a session title from the first submitted message: the
// first line of its text cut to TitleLimit grapheme clusters, or
// "File: <name>" for an attachment-only message.
func Title(text string, att *codey.Attachment) string {
	text = strings.TrimSpace(text)
	if text == "" && att != nil {
		name := att.Name
		if name == "" {
			name = "Analysis"
		}
		text = "File: " + name
	}
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(truncate(line, TitleLimit))
	if line == "" {
		return "Untitled Chat"
	}
	return line
}

func truncate(s string, n int) string {
	var (
		b     strings.Builder
		state = -1
		count int
	)
	for len(s) > 0 && count < n {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		b.WriteString(cluster)
		count++
	}
	return b.String()
}
