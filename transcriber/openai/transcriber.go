package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/consult/transcriber"
)

type openAITranscriber struct {
	options transcriber.Options
	client  *openai.Client
}

func (t *openAITranscriber) Transcribe(ctx context.Context, path string) (transcriber.Transcription, error) {
	rsp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.options.Model,
		FilePath: path,
		Language: t.options.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return transcriber.Transcription{}, err
	}

	language := rsp.Language
	if len(language) == 0 {
		language = t.options.Language
	}

	return transcriber.Transcription{
		Text:            strings.TrimSpace(rsp.Text),
		Language:        language,
		DurationSeconds: rsp.Duration,
	}, nil
}

func NewTranscriber(opts ...transcriber.Option) (transcriber.Transcriber, error) {
	options := transcriber.NewOptions(opts...)

	if len(options.ApiKey) == 0 {
		return nil, errors.New("missing api key for openai transcriber")
	}

	if len(options.Model) == 0 {
		options.Model = openai.Whisper1
	}

	config := openai.DefaultConfig(options.ApiKey)
	if len(options.Location) > 0 {
		config.BaseURL = options.Location
	}

	return &openAITranscriber{
		options: options,
		client:  openai.NewClientWithConfig(config),
	}, nil
}
