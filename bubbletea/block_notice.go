package bubbletea

import "github.com/charmbracelet/lipgloss"

var _ MessageBlock = (*NoticeBlock)(nil)

// NoticeBlock renders an assistant error notice.
type NoticeBlock struct {
	text   string
	styles Styles
}

// NewNoticeBlock creates a NoticeBlock.
func NewNoticeBlock(text string, styles Styles) *NoticeBlock {
	return &NoticeBlock{text: text, styles: styles}
}

func (b *NoticeBlock) View(width int) string {
	content := b.styles.Notice.Render("⚠ " + b.text)
	return lipgloss.NewStyle().Width(width).Render(content)
}
