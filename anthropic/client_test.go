package anthropic_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSSE = "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_1\",\"type\":\"message\",\"role\":\"assistant\",\"content\":[],\"model\":\"m\",\"stop_reason\":null,\"stop_sequence\":null,\"usage\":{\"input_tokens\":0,\"output_tokens\":0}}}\n\nevent: message_delta\ndata: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"end_turn\"},\"usage\":{\"output_tokens\":0}}\n\nevent: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"

// captureRequest streams req through a client pointed at a test server and
// returns the decoded request body.
func captureRequest(t *testing.T, opts []anthropic.Option, req codey.Request) map[string]any {
	t.Helper()
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- b

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-api-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(minimalSSE))
	}))
	t.Cleanup(srv.Close)

	client := anthropic.New("test-api-key", append([]anthropic.Option{anthropic.WithBaseURL(srv.URL)}, opts...)...)
	s, err := client.Stream(context.Background(), req)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	var body map[string]any
	require.NoError(t, json.Unmarshal(<-bodies, &body))
	return body
}

func TestClient_RequestFormat(t *testing.T) {
	t.Parallel()

	temp := 0.7
	body := captureRequest(t, nil, codey.Request{
		Model:        "claude-opus-4-20250514",
		SystemPrompt: "You are helpful.",
		History: []codey.Turn{
			codey.UserTurn("Hello"),
			{Role: codey.RoleAssistant, Parts: []codey.Part{codey.TextPart{Text: "Hi"}}},
			codey.UserTurn("Thanks"),
		},
		MaxTokens:   1024,
		Temperature: &temp,
	})

	assert.Equal(t, "claude-opus-4-20250514", body["model"])
	assert.Equal(t, float64(1024), body["max_tokens"])
	assert.Equal(t, true, body["stream"])
	assert.Equal(t, 0.7, body["temperature"])
	assert.Nil(t, body["thinking"])
	assert.Equal(t, map[string]any{"type": "ephemeral"}, body["cache_control"])

	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "You are helpful.", system[0].(map[string]any)["text"])

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 3)
	msg1 := msgs[1].(map[string]any)
	assert.Equal(t, "assistant", msg1["role"])
	block := msg1["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "text", block["type"])
	assert.Equal(t, "Hi", block["text"])
}

func TestClient_DefaultModelAndMaxTokens(t *testing.T) {
	t.Parallel()

	body := captureRequest(t, nil, codey.Request{History: []codey.Turn{codey.UserTurn("Hi")}})
	assert.Equal(t, "claude-sonnet-4-20250514", body["model"])
	assert.Equal(t, float64(8192), body["max_tokens"])
	assert.Nil(t, body["system"])

	body = captureRequest(t, []anthropic.Option{anthropic.WithModel("claude-haiku")}, codey.Request{History: []codey.Turn{codey.UserTurn("Hi")}})
	assert.Equal(t, "claude-haiku", body["model"])
}

func TestClient_Thinking(t *testing.T) {
	t.Parallel()

	temp := 0.2
	body := captureRequest(t, nil, codey.Request{
		History:        []codey.Turn{codey.UserTurn("Hi")},
		ThinkingBudget: codey.ReasoningBudget,
		Temperature:    &temp,
	})

	assert.Equal(t, map[string]any{"type": "enabled", "budget_tokens": float64(32768)}, body["thinking"])
	assert.Equal(t, float64(32768+8192), body["max_tokens"])
	assert.Nil(t, body["temperature"])
}

func TestClient_AttachmentBeforeText(t *testing.T) {
	t.Parallel()

	body := captureRequest(t, nil, codey.Request{
		History: []codey.Turn{{Role: codey.RoleUser, Parts: []codey.Part{
			codey.BlobPart{MIMEType: "image/png", Data: []byte("png")},
			codey.BlobPart{MIMEType: "application/pdf", Data: []byte("pdf")},
			codey.TextPart{Text: "describe"},
		}}},
	})

	content := body["messages"].([]any)[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 3)
	img := content[0].(map[string]any)
	assert.Equal(t, "image", img["type"])
	assert.Equal(t, map[string]any{
		"type":       "base64",
		"media_type": "image/png",
		"data":       base64.StdEncoding.EncodeToString([]byte("png")),
	}, img["source"])
	assert.Equal(t, "document", content[1].(map[string]any)["type"])
	assert.Equal(t, "describe", content[2].(map[string]any)["text"])
}

func TestClient_SchemaInSystemPrompt(t *testing.T) {
	t.Parallel()

	body := captureRequest(t, nil, codey.Request{
		SystemPrompt: "Palette designer.",
		History:      []codey.Turn{codey.UserTurn("ocean")},
		Schema:       json.RawMessage(`{"type":"object"}`),
	})

	system := body["system"].([]any)
	require.Len(t, system, 2)
	last := system[1].(map[string]any)
	assert.Contains(t, last["text"], `{"type":"object"}`)
	assert.Equal(t, map[string]any{"type": "ephemeral"}, last["cache_control"])
}

func TestClient_InvalidRequest(t *testing.T) {
	t.Parallel()

	client := anthropic.New("test-key", anthropic.WithBaseURL("http://127.0.0.1:0"))
	_, err := client.Stream(context.Background(), codey.Request{})
	assert.ErrorIs(t, err, codey.ErrValidation)
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens: integer above 1 expected"}}`))
	}))
	defer srv.Close()

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	_, err := client.Stream(context.Background(), codey.Request{History: []codey.Turn{codey.UserTurn("Hi")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_request_error")
	assert.Contains(t, err.Error(), "max_tokens")
}

func TestClient_HTTPErrorNonJSON(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
	}))
	defer srv.Close()

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	_, err := client.Stream(context.Background(), codey.Request{History: []codey.Turn{codey.UserTurn("Hi")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestComplete_DrainsStream(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(textStreamResponse().handler())
	defer srv.Close()

	client := anthropic.New("test-key", anthropic.WithBaseURL(srv.URL))
	reply, err := codey.Complete(context.Background(), client, codey.Request{History: []codey.Turn{codey.UserTurn("Hi")}})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", reply.Text)
}
