package conversation

import (
	"encoding/json"
	"maps"
)

// ExtractedData holds the structured fields pulled out of a transcription.
// Optional fields are nil when the conversation does not mention them.
type ExtractedData struct {
	PatientName          *string  `json:"patient_name"`
	PatientAge           *float64 `json:"patient_age"`
	ConsultationDate     *string  `json:"consultation_date"`
	Symptoms             []string `json:"symptoms"`
	PreliminaryDiagnosis *string  `json:"preliminary_diagnosis"`
	Observations         string   `json:"observations"`
}

// Normalize makes the zero-value slice explicit so it serialises as [] and not null.
func (d ExtractedData) Normalize() ExtractedData {
	if d.Symptoms == nil {
		d.Symptoms = []string{}
	}
	return d
}

type Metadata struct {
	Filename              string         `json:"filename,omitempty"`
	Language              string         `json:"language,omitempty"`
	ProcessingTimeSeconds float64        `json:"processing_time_seconds"`
	Extra                 map[string]any `json:"-"`
}

func (m Metadata) Map() map[string]any {
	out := make(map[string]any, len(m.Extra)+3)
	maps.Copy(out, m.Extra)

	if len(m.Filename) > 0 {
		out["filename"] = m.Filename
	}

	if len(m.Language) > 0 {
		out["language"] = m.Language
	}

	out["processing_time_seconds"] = m.ProcessingTimeSeconds

	return out
}

// Payload is what gets stored next to the vector of a record.
type Payload struct {
	Transcription      string
	ExtractedData      ExtractedData
	ProcessingMetadata Metadata
}

// Map converts the payload into the generic mapping understood by vector backends.
func (p Payload) Map() map[string]any {
	return map[string]any{
		"transcription":       p.Transcription,
		"extracted_data":      p.ExtractedData.Normalize().Map(),
		"processing_metadata": p.ProcessingMetadata.Map(),
	}
}

func (d ExtractedData) Map() map[string]any {
	out := map[string]any{
		"patient_name":          nil,
		"patient_age":           nil,
		"consultation_date":     nil,
		"symptoms":              d.Symptoms,
		"preliminary_diagnosis": nil,
		"observations":          d.Observations,
	}

	if d.PatientName != nil {
		out["patient_name"] = *d.PatientName
	}

	if d.PatientAge != nil {
		out["patient_age"] = *d.PatientAge
	}

	if d.ConsultationDate != nil {
		out["consultation_date"] = *d.ConsultationDate
	}

	if d.PreliminaryDiagnosis != nil {
		out["preliminary_diagnosis"] = *d.PreliminaryDiagnosis
	}

	return out
}

// Hit is one ranked search result. Payload is the stored mapping as the backend returned it.
type Hit struct {
	Id      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type AnswerResult struct {
	Question         string           `json:"question"`
	Answer           string           `json:"answer"`
	RetrievedContext []map[string]any `json:"retrieved_context"`
}

// Contexts returns the payloads of hits in rank order, never nil.
func Contexts(hits []Hit) []map[string]any {
	out := make([]map[string]any, 0, len(hits))
	for _, hit := range hits {
		out = append(out, hit.Payload)
	}
	return out
}

// Normalize round-trips a mapping through JSON so nested values take the
// generic shapes a remote backend would hand back.
func Normalize(payload map[string]any) (map[string]any, error) {
	bs, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func String(s string) *string {
	return &s
}

func Float(f float64) *float64 {
	return &f
}
