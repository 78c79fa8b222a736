package codey

// Turn is one role-tagged entry of the provider-facing history.
type Turn struct {
	Role  Role
	Parts []Part
}

// Part is a sealed interface representing one part of a turn.
// The unexported marker method prevents external implementations.
type Part interface {
	part()
}

// TextPart carries text.
type TextPart struct {
	Text string
}

func (TextPart) part() {}

// BlobPart carries inline binary data, such as an attached image.
type BlobPart struct {
	MIMEType string
	Data     []byte
}

func (BlobPart) part() {}

// Interface compliance checks.
var (
	_ Part = TextPart{}
	_ Part = BlobPart{}
)

// UserTurn is a convenience constructor for a single-text user turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}
