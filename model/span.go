package model

import "strings"

// Span is a labeled substring of chapter text produced by an extractor.
// Start and End are 0-based rune offsets into the extracted text with
// 0 <= Start < End <= len(text).
type Span struct {
	Label string  `json:"label"`
	Text  string  `json:"text"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score,omitempty"`
}

// LabelMapping maps extractor labels to entity types. Labels not present
// in the mapping mark spans the resolution pipeline discards.
type LabelMapping map[string]EntityType

// DefaultLabelMapping returns the mapping for the spaCy/OntoNotes and
// CoNLL label sets emitted by the supported NER models.
func DefaultLabelMapping() LabelMapping {
	return LabelMapping{
		"PERSON":       EntityTypeCharacter,
		"PER":          EntityTypeCharacter,
		"GPE":          EntityTypeLocation,
		"LOC":          EntityTypeLocation,
		"LOCATION":     EntityTypeLocation,
		"FAC":          EntityTypeLocation,
		"ORG":          EntityTypeOrganization,
		"ORGANIZATION": EntityTypeOrganization,
		"PRODUCT":      EntityTypeItem,
		"EVENT":        EntityTypeConcept,
		"WORK_OF_ART":  EntityTypeConcept,
		"MISC":         EntityTypeConcept,
	}
}

// Resolve maps an extractor label to an entity type. It strips BIO
// tagging prefixes (B-, I-) and upper-cases the label first, so
// per/PER/B-PER variants from different models hit the same row.
func (m LabelMapping) Resolve(label string) (EntityType, bool) {
	label = strings.ToUpper(label)
	label = strings.TrimPrefix(label, "B-")
	label = strings.TrimPrefix(label, "I-")

	entityType, ok := m[label]
	return entityType, ok
}
