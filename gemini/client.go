package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/codey"
	"google.golang.org/genai"
)

// Interface compliance checks.
var (
	_ codey.Provider  = (*Client)(nil)
	_ codey.Generator = (*Client)(nil)
)

// Client implements [codey.Provider] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the default model ID used when a request names none.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Stream sends a streaming request to the Gemini API and returns a
// [codey.Stream] that emits text and thinking deltas.
func (c *Client) Stream(ctx context.Context, req codey.Request) (codey.Stream, error) {
	model, contents, config, err := c.prepare(req)
	if err != nil {
		return nil, err
	}
	seq := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	return NewStreamFromIter(ctx, seq), nil
}

// Generate performs a non-streaming request.
func (c *Client) Generate(ctx context.Context, req codey.Request) (codey.Reply, error) {
	model, contents, config, err := c.prepare(req)
	if err != nil {
		return codey.Reply{}, err
	}
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return codey.Reply{}, fmt.Errorf("gemini: %w", err)
	}
	return ReplyFromResponse(resp)
}

func (c *Client) prepare(req codey.Request) (string, []*genai.Content, *genai.GenerateContentConfig, error) {
	if err := req.Validate(); err != nil {
		return "", nil, nil, fmt.Errorf("gemini: %w", err)
	}
	model := req.Model
	if model == "" {
		model = c.model
	}
	config, err := BuildConfig(req)
	if err != nil {
		return "", nil, nil, err
	}
	return model, ConvertTurns(req.History), config, nil
}

// BuildConfig translates request parameters into a generation config.
// Exported for testing.
func BuildConfig(req codey.Request) (*genai.GenerateContentConfig, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.ThinkingBudget > 0 {
		budget := int32(req.ThinkingBudget)
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  &budget,
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	if req.Schema != nil {
		var schema map[string]any
		if err := json.Unmarshal(req.Schema, &schema); err != nil {
			return nil, fmt.Errorf("gemini: response schema: %w: %w", codey.ErrValidation, err)
		}
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = schema
	}

	return config, nil
}

// ConvertTurns converts codey turns to genai contents.
// Exported for testing.
func ConvertTurns(turns []codey.Turn) []*genai.Content {
	result := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.RoleUser
		if t.Role == codey.RoleAssistant {
			role = genai.RoleModel
		}
		result = append(result, &genai.Content{
			Role:  string(role),
			Parts: convertParts(t.Parts),
		})
	}
	return result
}

func convertParts(parts []codey.Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case codey.TextPart:
			out = append(out, &genai.Part{Text: v.Text})
		case codey.BlobPart:
			out = append(out, &genai.Part{
				InlineData: &genai.Blob{
					MIMEType: v.MIMEType,
					Data:     v.Data,
				},
			})
		}
	}
	return out
}

// ReplyFromResponse assembles a reply from a non-streaming response.
// Exported for testing.
func ReplyFromResponse(resp *genai.GenerateContentResponse) (codey.Reply, error) {
	var a assembler
	if err := a.add(resp); err != nil {
		return codey.Reply{}, err
	}
	a.drainEvents()
	return a.reply, nil
}
