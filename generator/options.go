package generator

import "context"

type Option func(*Options)

type Options struct {
	ApiKey       string
	Model        string
	Location     string
	PromptPrefix string
	MaxTokens    int
	Context      context.Context
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithLocation overrides the provider base URL.
func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

func WithPromptPrefix(prefix string) Option {
	return func(o *Options) {
		o.PromptPrefix = prefix
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxTokens: 1024,
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type GenerateOption func(*GenerateOptions)

type GenerateOptions struct {
	ResponseMIMEType string
	ResponseSchema   *Schema
}

// WithResponseSchema asks the backend for a JSON document shaped by schema.
func WithResponseSchema(schema *Schema) GenerateOption {
	return func(o *GenerateOptions) {
		o.ResponseMIMEType = "application/json"
		o.ResponseSchema = schema
	}
}

func NewGenerateOptions(opts ...GenerateOption) GenerateOptions {
	options := GenerateOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func Prefixed(prefix string, prompt string) string {
	if len(prefix) == 0 {
		return prompt
	}
	return prefix + "\n" + prompt
}
