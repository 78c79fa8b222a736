package codey

// Usage tracks token consumption for one generation.
//
// InputTokens counts non-cached prompt tokens. ThinkingTokens is reported
// separately from OutputTokens by providers that bill reasoning on its own
// line. Providers clamp derived values to zero.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	ThinkingTokens  int
	CacheReadTokens int
}

// Total returns the sum of all token categories.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens + u.ThinkingTokens + u.CacheReadTokens
}
