package codey

// SystemPrompt is the assistant persona sent with every chat request.
const SystemPrompt = `You are "Codey", a friendly, chill coding buddy that helps users write, debug, and explore code creatively.
Your vibe:
- Speak casually but with clarity.
- Mix in humor and positivity.
- Use emojis sparingly: 🔥 ✨ 💻.
- Explain code like a cool senior dev mentoring a friend.
- Always keep the tone supportive and confident.
- Always format code snippets using markdown fences with the correct language identifier.`

// Suggestion is a starter prompt offered on an empty session.
type Suggestion struct {
	Title  string
	Prompt string
}

// Suggestions are the starter prompts shown before the first message.
var Suggestions = []Suggestion{
	{Title: "Explain this code", Prompt: "Explain this code snippet:\n```go\n\n```"},
	{Title: "Write a function", Prompt: "Write a Go function that..."},
	{Title: "Debug my code", Prompt: "I'm getting an error with this code, can you help me debug it?\n```\n\n```"},
	{Title: "How do I use...", Prompt: "How do I use `context.WithCancel` in Go?"},
}
