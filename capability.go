package codey

import "context"

// FileReader reads an attachable file from the host. The handle is
// host-specific (a path for the local filesystem).
type FileReader interface {
	ReadFile(ctx context.Context, handle string) (data []byte, mimeType string, err error)
}

// Dictation captures speech from the host and yields final transcripts.
// The channel is closed when dictation ends or ctx is cancelled.
type Dictation interface {
	StartDictation(ctx context.Context) (<-chan string, error)
}
