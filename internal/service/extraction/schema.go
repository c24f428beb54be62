package extraction

import "github.com/w-h-a/consult/generator"

// ConversationSchema is the response contract requested from the generator.
var ConversationSchema = &generator.Schema{
	Type: generator.TypeObject,
	Properties: map[string]*generator.Schema{
		"patient_name": {
			Type:        generator.TypeString,
			Nullable:    true,
			Description: "Full name of the patient. Null when not mentioned.",
		},
		"patient_age": {
			Type:        generator.TypeNumber,
			Nullable:    true,
			Description: "Age of the patient in years. Null when not mentioned.",
		},
		"consultation_date": {
			Type:        generator.TypeString,
			Nullable:    true,
			Description: "Date of the consultation as YYYY-MM-DD. Null when not mentioned.",
		},
		"symptoms": {
			Type:        generator.TypeArray,
			Items:       &generator.Schema{Type: generator.TypeString},
			Description: "Every symptom the patient mentions, e.g. 'fever', 'headache', 'dry cough'.",
		},
		"preliminary_diagnosis": {
			Type:        generator.TypeString,
			Nullable:    true,
			Description: "Preliminary diagnosis or illness mentioned. Null when not mentioned.",
		},
		"observations": {
			Type:        generator.TypeString,
			Description: "Summary of any other relevant information, context or notes from the health promoter.",
		},
	},
	Required: requiredFields,
}

var requiredFields = []string{"patient_name", "symptoms", "observations"}
