package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/w-h-a/consult/generator"
)

const DefaultModel = "claude-sonnet-4-5"

type anthropicGenerator struct {
	options generator.Options
	client  *anthropic.Client
}

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string, opts ...generator.GenerateOption) (string, error) {
	options := generator.NewGenerateOptions(opts...)

	fullPrompt := generator.Prefixed(g.options.PromptPrefix, prompt)

	// messages api has no response schema parameter so the contract rides in the prompt
	if options.ResponseSchema != nil {
		schema, err := json.MarshalIndent(options.ResponseSchema.JSONSchema(), "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal response schema: %w", err)
		}
		fullPrompt += "\n\nRespond with a single JSON object and nothing else. It must match this JSON schema:\n" + string(schema)
	} else if options.ResponseMIMEType == "application/json" {
		fullPrompt += "\n\nRespond with a single JSON object and nothing else."
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.options.Model),
		MaxTokens: int64(g.options.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fullPrompt)),
		},
	}

	rsp, err := g.client.Messages.New(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	result := b.String()
	if len(result) == 0 {
		return "", errors.New("no response from Anthropic")
	}

	return result, nil
}

func NewGenerator(opts ...generator.Option) (generator.Generator, error) {
	options := generator.NewOptions(opts...)

	if len(options.ApiKey) == 0 {
		return nil, errors.New("missing api key for anthropic generator")
	}

	if len(options.Model) == 0 {
		options.Model = DefaultModel
	}

	clientOpts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(options.ApiKey)}
	if len(options.Location) > 0 {
		clientOpts = append(clientOpts, anthropicopt.WithBaseURL(options.Location))
	}

	client := anthropic.NewClient(clientOpts...)

	return &anthropicGenerator{
		options: options,
		client:  &client,
	}, nil
}
