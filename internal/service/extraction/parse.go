package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/w-h-a/consult/conversation"
)

const dateLayout = "2006-01-02"

type rawExtraction struct {
	PatientName          *string   `json:"patient_name"`
	PatientAge           *float64  `json:"patient_age"`
	ConsultationDate     *string   `json:"consultation_date"`
	Symptoms             []*string `json:"symptoms"`
	PreliminaryDiagnosis *string   `json:"preliminary_diagnosis"`
	Observations         *string   `json:"observations"`
}

// Parse decodes and validates a generator reply. A reply wrapped in a
// markdown code fence is accepted.
func Parse(ctx context.Context, reply string) (conversation.ExtractedData, error) {
	body := stripFence(reply)

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &keys); err != nil {
		return conversation.ExtractedData{}, fmt.Errorf("reply is not a JSON object: %w", err)
	}

	for _, field := range requiredFields {
		if _, ok := keys[field]; !ok {
			return conversation.ExtractedData{}, fmt.Errorf("reply is missing required field %q", field)
		}
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return conversation.ExtractedData{}, fmt.Errorf("reply has malformed fields: %w", err)
	}

	if raw.PatientAge != nil && *raw.PatientAge < 0 {
		return conversation.ExtractedData{}, fmt.Errorf("patient_age must not be negative, got %v", *raw.PatientAge)
	}

	data := conversation.ExtractedData{
		PatientName:          nonBlank(raw.PatientName),
		PatientAge:           raw.PatientAge,
		ConsultationDate:     nonBlank(raw.ConsultationDate),
		Symptoms:             []string{},
		PreliminaryDiagnosis: nonBlank(raw.PreliminaryDiagnosis),
	}

	if raw.Observations != nil {
		data.Observations = strings.TrimSpace(*raw.Observations)
	}

	for _, symptom := range raw.Symptoms {
		if s := nonBlank(symptom); s != nil {
			data.Symptoms = append(data.Symptoms, *s)
		}
	}

	if data.ConsultationDate != nil {
		if _, err := time.Parse(dateLayout, *data.ConsultationDate); err != nil {
			slog.WarnContext(ctx, "dropping consultation date that is not YYYY-MM-DD", "consultation_date", *data.ConsultationDate)
			data.ConsultationDate = nil
		}
	}

	return data, nil
}

func stripFence(reply string) string {
	body := strings.TrimSpace(reply)

	if !strings.HasPrefix(body, "```") {
		return body
	}

	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	} else {
		body = strings.TrimPrefix(body, "```")
	}

	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")

	return strings.TrimSpace(body)
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*s)
	if len(trimmed) == 0 {
		return nil
	}

	return &trimmed
}
