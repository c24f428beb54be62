package conversation_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/consult/conversation"
)

func TestPayloadMap(t *testing.T) {
	payload := conversation.Payload{
		Transcription: "Maria reports headache",
		ExtractedData: conversation.ExtractedData{
			PatientName:  conversation.String("Maria"),
			PatientAge:   conversation.Float(34),
			Observations: "rest",
		},
		ProcessingMetadata: conversation.Metadata{
			Filename:              "a.wav",
			Language:              "pt",
			ProcessingTimeSeconds: 1.5,
			Extra:                 map[string]any{"source": "cli"},
		},
	}

	got := payload.Map()

	assert.Equal(t, "Maria reports headache", got["transcription"])

	extracted := got["extracted_data"].(map[string]any)
	assert.Equal(t, "Maria", extracted["patient_name"])
	assert.Equal(t, 34.0, extracted["patient_age"])
	assert.Nil(t, extracted["consultation_date"])
	assert.Equal(t, []string{}, extracted["symptoms"])

	meta := got["processing_metadata"].(map[string]any)
	assert.Equal(t, "a.wav", meta["filename"])
	assert.Equal(t, "pt", meta["language"])
	assert.Equal(t, 1.5, meta["processing_time_seconds"])
	assert.Equal(t, "cli", meta["source"])
}

func TestExtractedDataSymptomsSerialiseAsEmptyList(t *testing.T) {
	bs, err := json.Marshal(conversation.ExtractedData{}.Normalize())
	require.NoError(t, err)

	assert.Contains(t, string(bs), `"symptoms":[]`)
	assert.Contains(t, string(bs), `"patient_name":null`)
}

func TestNormalize(t *testing.T) {
	got, err := conversation.Normalize(map[string]any{
		"nested": map[string]any{"list": []string{"a"}},
	})
	require.NoError(t, err)

	nested := got["nested"].(map[string]any)
	assert.Equal(t, []any{"a"}, nested["list"])
}

func TestContextsNeverNil(t *testing.T) {
	got := conversation.Contexts(nil)

	require.NotNil(t, got)
	assert.Empty(t, got)

	bs, err := json.Marshal(conversation.AnswerResult{RetrievedContext: got})
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"retrieved_context":[]`)
}
