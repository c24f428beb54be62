package google

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/consult/generator"
	genaiopt "google.golang.org/api/option"
)

const DefaultModel = "gemini-2.5-flash"

type googleGenerator struct {
	options generator.Options
	client  *genai.Client
}

func (g *googleGenerator) Generate(ctx context.Context, prompt string, opts ...generator.GenerateOption) (string, error) {
	options := generator.NewGenerateOptions(opts...)

	req := genai.Text(generator.Prefixed(g.options.PromptPrefix, prompt))

	model := g.client.GenerativeModel(g.options.Model)

	if len(options.ResponseMIMEType) > 0 {
		model.ResponseMIMEType = options.ResponseMIMEType
	}

	if options.ResponseSchema != nil {
		model.ResponseSchema = toGenaiSchema(options.ResponseSchema)
	}

	rsp, err := model.GenerateContent(ctx, req)
	if err != nil {
		return "", err
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Google")
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return b.String(), nil
}

func toGenaiSchema(s *generator.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toGenaiType(s.Type),
		Description: s.Description,
		Nullable:    s.Nullable,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}

	return out
}

func toGenaiType(t generator.Type) genai.Type {
	switch t {
	case generator.TypeObject:
		return genai.TypeObject
	case generator.TypeArray:
		return genai.TypeArray
	case generator.TypeNumber:
		return genai.TypeNumber
	case generator.TypeInteger:
		return genai.TypeInteger
	case generator.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func NewGenerator(opts ...generator.Option) (generator.Generator, error) {
	options := generator.NewOptions(opts...)

	if len(options.ApiKey) == 0 {
		return nil, errors.New("missing api key for google generator")
	}

	if len(options.Model) == 0 {
		options.Model = DefaultModel
	}

	clientOpts := []genaiopt.ClientOption{genaiopt.WithAPIKey(options.ApiKey)}
	if len(options.Location) > 0 {
		clientOpts = append(clientOpts, genaiopt.WithEndpoint(options.Location))
	}

	client, err := genai.NewClient(options.Context, clientOpts...)
	if err != nil {
		return nil, err
	}

	return &googleGenerator{
		options: options,
		client:  client,
	}, nil
}
