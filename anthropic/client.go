package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fwojciec/codey"
)

// Interface compliance check.
var _ codey.Provider = (*Client)(nil)

// Client implements [codey.Provider] for the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model used when a request names none.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream sends a streaming request to the Anthropic Messages API and returns
// a [codey.Stream] that emits text and thinking deltas.
func (c *Client) Stream(ctx context.Context, req codey.Request) (codey.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	body, err := c.buildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return newStream(ctx, resp.Body), nil
}

func (c *Client) buildRequestBody(req codey.Request) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	apiReq := apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Stream:      true,
		System:      convertSystem(req.SystemPrompt, req.Schema),
		Messages:    convertTurns(req.History),
		Temperature: req.Temperature,
	}
	// The budget counts against max_tokens and thinking rejects any
	// temperature other than the default.
	if req.ThinkingBudget > 0 {
		apiReq.Thinking = &apiThinking{Type: "enabled", BudgetTokens: req.ThinkingBudget}
		apiReq.MaxTokens = req.ThinkingBudget + maxTokens
		apiReq.Temperature = nil
	}
	injectCacheMarkers(&apiReq)

	return json.Marshal(apiReq)
}

// convertSystem converts a system prompt string to an array of content blocks
// suitable for the Anthropic API. The Messages API has no structured output
// mode, so a schema is carried as an instruction. Returns nil when there is
// nothing to say.
func convertSystem(prompt string, schema json.RawMessage) []apiContentBlock {
	var blocks []apiContentBlock
	if prompt != "" {
		blocks = append(blocks, apiContentBlock{Type: "text", Text: prompt})
	}
	if schema != nil {
		blocks = append(blocks, apiContentBlock{
			Type: "text",
			Text: "Respond with a single JSON value matching this JSON Schema and nothing else:\n" + string(schema),
		})
	}
	return blocks
}

// injectCacheMarkers sets cache_control breakpoints on the request:
//  1. Top-level: automatic caching for the conversation message window.
//  2. System prompt last block: stable content breakpoint.
func injectCacheMarkers(req *apiRequest) {
	// cc is shared across all breakpoints; safe because it is read-only after assignment.
	cc := &apiCacheControl{Type: "ephemeral"}

	req.CacheControl = cc

	if len(req.System) > 0 {
		req.System[len(req.System)-1].CacheControl = cc
	}
}

func convertTurns(turns []codey.Turn) []apiMessage {
	result := make([]apiMessage, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == codey.RoleAssistant {
			role = "assistant"
		}
		result = append(result, apiMessage{
			Role:    role,
			Content: convertParts(t.Parts),
		})
	}
	return result
}

func convertParts(parts []codey.Part) []apiContentBlock {
	result := make([]apiContentBlock, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case codey.TextPart:
			result = append(result, apiContentBlock{Type: "text", Text: v.Text})
		case codey.BlobPart:
			kind := "image"
			if v.MIMEType == "application/pdf" {
				kind = "document"
			}
			result = append(result, apiContentBlock{
				Type: kind,
				Source: &apiSource{
					Type:      "base64",
					MediaType: v.MIMEType,
					Data:      base64.StdEncoding.EncodeToString(v.Data),
				},
			})
		}
	}
	return result
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("anthropic: %s: %s", apiErr.Error.Type, apiErr.Error.Message)
}
