package mock

import (
	"context"
	"sync"

	"github.com/w-h-a/consult/transcriber"
)

// Transcriber is a test double. TranscribeFunc decides the result; paths are recorded.
type Transcriber struct {
	TranscribeFunc func(ctx context.Context, path string) (transcriber.Transcription, error)

	mtx   sync.Mutex
	paths []string
}

func (t *Transcriber) Transcribe(ctx context.Context, path string) (transcriber.Transcription, error) {
	t.mtx.Lock()
	t.paths = append(t.paths, path)
	t.mtx.Unlock()

	if t.TranscribeFunc != nil {
		return t.TranscribeFunc(ctx, path)
	}

	return transcriber.Transcription{Text: "mock transcription", Language: "en"}, nil
}

func (t *Transcriber) Calls() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.paths)
}

func (t *Transcriber) Paths() []string {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return append([]string(nil), t.paths...)
}
