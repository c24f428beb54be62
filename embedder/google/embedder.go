package google

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/consult/embedder"
	genaiopt "google.golang.org/api/option"
)

const (
	DefaultModel     = "text-embedding-004"
	DefaultDimension = 768
)

type googleEmbedder struct {
	options embedder.Options
	client  *genai.Client
}

func (e *googleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.options.Model)
	rsp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}

	if rsp == nil || rsp.Embedding == nil || len(rsp.Embedding.Values) == 0 {
		return nil, errors.New("no response from Google")
	}

	if err := embedder.CheckDimension(rsp.Embedding.Values, e.options.Dimension); err != nil {
		return nil, err
	}

	return rsp.Embedding.Values, nil
}

func (e *googleEmbedder) Dimension() int {
	return e.options.Dimension
}

func NewEmbedder(opts ...embedder.Option) (embedder.Embedder, error) {
	options := embedder.NewOptions(opts...)

	if len(options.ApiKey) == 0 {
		return nil, errors.New("missing api key for google embedder")
	}

	if len(options.Model) == 0 {
		options.Model = DefaultModel
	}

	if options.Dimension == 0 {
		options.Dimension = DefaultDimension
	}

	clientOpts := []genaiopt.ClientOption{genaiopt.WithAPIKey(options.ApiKey)}
	if len(options.Location) > 0 {
		clientOpts = append(clientOpts, genaiopt.WithEndpoint(options.Location))
	}

	client, err := genai.NewClient(options.Context, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &googleEmbedder{
		options: options,
		client:  client,
	}, nil
}
