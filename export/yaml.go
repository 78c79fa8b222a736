package export

import (
	"io"
	"time"

	"github.com/fwojciec/codey"
	"gopkg.in/yaml.v3"
)

// YAMLExporter writes a readable YAML transcript. Attachment payloads are
// omitted.
type YAMLExporter struct{}

type yamlTranscript struct {
	ID        string        `yaml:"id"`
	Title     string        `yaml:"title"`
	CreatedAt time.Time     `yaml:"created_at"`
	Messages  []yamlMessage `yaml:"messages"`
}

type yamlMessage struct {
	Sender     string    `yaml:"sender"`
	Text       string    `yaml:"text,omitempty"`
	Attachment string    `yaml:"attachment,omitempty"`
	Notice     bool      `yaml:"notice,omitempty"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// Export writes s to w.
func (e *YAMLExporter) Export(s codey.Session, w io.Writer) error {
	t := yamlTranscript{ID: s.ID, Title: s.Title, CreatedAt: s.CreatedAt}
	for _, m := range s.Messages {
		if !exported(m) {
			continue
		}
		ym := yamlMessage{Sender: string(m.Sender), Text: m.Text, Notice: m.Notice, Timestamp: m.Timestamp}
		if m.Attachment != nil {
			ym.Attachment = m.Attachment.Name
		}
		t.Messages = append(t.Messages, ym)
	}

	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()
	enc.SetIndent(2)
	return enc.Encode(t)
}

// Extension returns the file extension for this format.
func (e *YAMLExporter) Extension() string { return "yaml" }
