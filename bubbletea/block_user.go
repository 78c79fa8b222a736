package bubbletea

import (
	"github.com/fwojciec/codey"
)

var _ MessageBlock = (*UserMessageBlock)(nil)

// UserMessageBlock renders a user message on a full-width background,
// with an attachment chip above the text when one is present.
type UserMessageBlock struct {
	text       string
	attachment *codey.Attachment
	styles     Styles
}

// NewUserMessageBlock creates a UserMessageBlock.
func NewUserMessageBlock(text string, att *codey.Attachment, styles Styles) *UserMessageBlock {
	return &UserMessageBlock{text: text, attachment: att, styles: styles}
}

func (b *UserMessageBlock) View(width int) string {
	body := b.styles.UserBg.Width(width).Render(b.text)
	if b.attachment == nil {
		return body
	}
	chip := b.styles.Chip.Render(attachmentLabel(*b.attachment))
	if b.text == "" {
		return chip
	}
	return chip + "\n" + body
}

func attachmentLabel(a codey.Attachment) string {
	name := a.Name
	if name == "" {
		name = "attachment"
	}
	if mime := a.MIME(); mime != "" {
		return "📎 " + name + " · " + mime
	}
	return "📎 " + name
}
