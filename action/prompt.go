package action

import (
	"fmt"
	"strings"

	"github.com/fwojciec/codey/segment"
)

func refactorPrompt(code segment.Code) string {
	return fmt.Sprintf("Refactor the following %s code to be cleaner and more idiomatic without changing its behavior. "+
		"Reply with only the refactored code in a single fenced code block and no commentary.\n\n```%s\n%s\n```",
		code.Language(), code.Tag, code.Text())
}

func explainPrompt(code segment.Code) string {
	return fmt.Sprintf("Explain what the following %s code does for a developer reading it for the first time. "+
		"Walk through it step by step using short markdown paragraphs and lists.\n\n```%s\n%s\n```",
		code.Language(), code.Tag, code.Text())
}

// ExtractCode returns the code from a model reply: the body of the first
// fenced block, or the reply with stray fence lines removed.
func ExtractCode(reply string) string {
	if codes := segment.Codes(reply); len(codes) > 0 {
		return codes[0].Text()
	}
	lines := strings.Split(strings.TrimSpace(reply), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
