package transcriber

import "context"

type Transcription struct {
	Text            string
	Language        string
	DurationSeconds float64
}

// Transcriber converts an audio file on disk to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (Transcription, error)
}
