package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/consult/generator"
	"github.com/w-h-a/consult/generator/anthropic"
)

func TestGenerateAppendsSchemaToPrompt(t *testing.T) {
	var seen map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "{\"observations\":\"ok\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	t.Cleanup(srv.Close)

	g, err := anthropic.NewGenerator(generator.WithApiKey("test-key"), generator.WithLocation(srv.URL))
	require.NoError(t, err)

	schema := &generator.Schema{
		Type:       generator.TypeObject,
		Properties: map[string]*generator.Schema{"observations": {Type: generator.TypeString}},
	}

	got, err := g.Generate(context.Background(), "extract this", generator.WithResponseSchema(schema))
	require.NoError(t, err)
	assert.Equal(t, `{"observations":"ok"}`, got)

	assert.Equal(t, anthropic.DefaultModel, seen["model"])
	assert.Equal(t, 1024.0, seen["max_tokens"])

	messages := seen["messages"].([]any)
	require.Len(t, messages, 1)

	content := messages[0].(map[string]any)["content"].([]any)
	text := content[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "extract this")
	assert.Contains(t, text, `"observations"`)
}

func TestNewGeneratorRequiresApiKey(t *testing.T) {
	_, err := anthropic.NewGenerator()
	require.Error(t, err)
}
