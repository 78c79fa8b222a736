package codey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Validator is implemented by JSON response targets that check their own
// invariants after decoding.
type Validator interface {
	Validate() error
}

// Complete performs a one-shot request. Providers implementing [Generator]
// answer natively; otherwise the stream is drained and its reply returned.
// Failures from the provider are classified as [ErrTransport].
func Complete(ctx context.Context, p Provider, req Request) (Reply, error) {
	if err := req.Validate(); err != nil {
		return Reply{}, err
	}
	if g, ok := p.(Generator); ok {
		reply, err := g.Generate(ctx, req)
		if err != nil {
			return Reply{}, AsTransport(err)
		}
		return reply, nil
	}

	s, err := p.Stream(ctx, req)
	if err != nil {
		return Reply{}, AsTransport(err)
	}
	defer s.Close()
	for {
		_, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Reply{}, AsTransport(err)
		}
	}
	return s.Reply()
}

// CompleteJSON performs a one-shot request constrained by req.Schema and
// decodes the response into v. Responses that fail to decode, or whose
// decoded value fails [Validator], yield [ErrMalformedResponse].
func CompleteJSON(ctx context.Context, p Provider, req Request, v any) error {
	if req.Schema == nil {
		return fmt.Errorf("json completion requires a schema: %w", ErrValidation)
	}
	reply, err := Complete(ctx, p, req)
	if err != nil {
		return err
	}
	raw := unfence(reply.Text)
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if val, ok := v.(Validator); ok {
		if err := val.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
	}
	return nil
}

// AsTransport wraps err with [ErrTransport] unless it already carries it.
// Nil stays nil.
func AsTransport(err error) error {
	if err == nil || errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// unfence strips a surrounding ```json fence that some models add even in
// JSON mode.
func unfence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	_, body, ok := strings.Cut(s, "\n")
	if !ok {
		return s
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), "```"))
}
