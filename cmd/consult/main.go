package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type Globals struct {
	LogLevel  string `help:"Log level" enum:"debug,info,warn,error" default:"info" env:"CONSULT_LOG_LEVEL"`
	LogFormat string `help:"Log format" enum:"text,json" default:"text" env:"CONSULT_LOG_FORMAT"`

	// Vector store config
	Store         string        `help:"Vector store backend" enum:"qdrant,postgres,memory" default:"qdrant" env:"CONSULT_STORE"`
	StoreLocation string        `help:"Address of the vector store" default:"http://localhost:6333" env:"QDRANT_URL,CONSULT_STORE_LOCATION"`
	StoreApiKey   string        `help:"API key for the vector store" default:"" env:"QDRANT_API_KEY"`
	StoreTimeout  time.Duration `help:"Timeout for vector store calls" default:"15s" env:"CONSULT_STORE_TIMEOUT"`
	Collection    string        `help:"Collection holding conversation records" default:"patient_conversations" env:"CONSULT_COLLECTION"`

	// Embedder config
	Embedder      string `help:"Embedding backend" enum:"hashing,google,openai" default:"hashing" env:"CONSULT_EMBEDDER"`
	EmbedderModel string `help:"Model identifier for embeddings" default:"" env:"CONSULT_EMBEDDER_MODEL"`
	Dimension     int    `help:"Embedding dimension, 0 for the backend default" default:"0" env:"CONSULT_DIMENSION"`

	// Generator config
	Generator         string        `help:"Generation backend" enum:"google,openai,anthropic" default:"google" env:"CONSULT_GENERATOR"`
	Model             string        `help:"Model identifier for generation" default:"" env:"CONSULT_MODEL"`
	GenerationTimeout time.Duration `help:"Timeout for answer generation" default:"60s" env:"CONSULT_GENERATION_TIMEOUT"`
	TopK              int           `help:"Records retrieved per question" default:"3" env:"CONSULT_TOP_K"`

	// Transcriber config
	Transcriber      string `help:"Speech-to-text backend" enum:"openai,none" default:"openai" env:"CONSULT_TRANSCRIBER"`
	TranscriberModel string `help:"Model identifier for transcription" default:"" env:"CONSULT_TRANSCRIBER_MODEL"`
	Language         string `help:"Expected spoken language, empty to detect" default:"" env:"CONSULT_LANGUAGE"`

	// Provider keys
	GeminiApiKey    string `help:"Gemini API key" default:"" env:"GEMINI_API_KEY"`
	OpenaiApiKey    string `help:"OpenAI API key" default:"" env:"OPENAI_API_KEY"`
	AnthropicApiKey string `help:"Anthropic API key" default:"" env:"ANTHROPIC_API_KEY"`

	Workers int `help:"Concurrent ingests" default:"4" env:"CONSULT_WORKERS"`
}

type CLI struct {
	Globals

	Serve  ServeCmd  `cmd:"" help:"Run the HTTP API"`
	Ask    AskCmd    `cmd:"" help:"Answer a question from stored conversations"`
	Ingest IngestCmd `cmd:"" help:"Transcribe, extract and store audio files"`
}

func main() {
	_ = godotenv.Load()

	var cli CLI

	kctx := kong.Parse(
		&cli,
		kong.Name("consult"),
		kong.Description("Transcribe consultations and answer questions about them."),
		kong.UsageOnError(),
	)

	setupLogging(cli.LogLevel, cli.LogFormat)

	kctx.FatalIfErrorf(kctx.Run(&cli.Globals))
}

func setupLogging(level string, format string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
