package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/consult/embedder"
)

const (
	DefaultModel     = string(openai.SmallEmbedding3)
	DefaultDimension = 1536
)

type openAIEmbedder struct {
	options embedder.Options
	client  *openai.Client
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.options.Model),
	}

	// only the v3 family accepts a reduced output size
	if strings.HasPrefix(e.options.Model, "text-embedding-3") {
		req.Dimensions = e.options.Dimension
	}

	rsp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	if err := embedder.CheckDimension(rsp.Data[0].Embedding, e.options.Dimension); err != nil {
		return nil, err
	}

	return rsp.Data[0].Embedding, nil
}

func (e *openAIEmbedder) Dimension() int {
	return e.options.Dimension
}

func NewEmbedder(opts ...embedder.Option) (embedder.Embedder, error) {
	options := embedder.NewOptions(opts...)

	if len(options.ApiKey) == 0 {
		return nil, errors.New("missing api key for openai embedder")
	}

	if len(options.Model) == 0 {
		options.Model = DefaultModel
	}

	if options.Dimension == 0 {
		options.Dimension = DefaultDimension
	}

	config := openai.DefaultConfig(options.ApiKey)
	if len(options.Location) > 0 {
		config.BaseURL = options.Location
	}

	return &openAIEmbedder{
		options: options,
		client:  openai.NewClientWithConfig(config),
	}, nil
}
