package export

import (
	"io"

	"github.com/fwojciec/codey"
	codeyjson "github.com/fwojciec/codey/json"
)

// JSONExporter writes the session in the persistence wire format.
type JSONExporter struct{}

// Export writes s to w.
func (e *JSONExporter) Export(s codey.Session, w io.Writer) error {
	data, err := codeyjson.MarshalSession(s)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// Extension returns the file extension for this format.
func (e *JSONExporter) Extension() string { return "json" }
