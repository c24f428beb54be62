package transcriber

import "context"

type Option func(*Options)

type Options struct {
	ApiKey   string
	Model    string
	Location string
	Language string
	Context  context.Context
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

// WithLanguage pins the spoken language instead of letting the backend detect it.
func WithLanguage(language string) Option {
	return func(o *Options) {
		o.Language = language
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
