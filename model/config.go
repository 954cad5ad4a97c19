package model

// ResolutionConfig holds the tunables of the entity resolution pipeline.
// MatchThreshold and ReviewThreshold are deliberately independent values:
// indexing is autonomous and must minimize false merges, while the
// duplicate scan feeds a human review and tolerates more false positives.
type ResolutionConfig struct {
	// MatchThreshold is the minimum similarity score for reusing an
	// existing entity during indexing.
	MatchThreshold float64 `json:"match_threshold"`
	// ReviewThreshold is the minimum similarity score for surfacing a
	// duplicate candidate group during a project scan.
	ReviewThreshold float64 `json:"review_threshold"`
	// ContextWindow is the number of runes of surrounding content kept
	// on each side of a mention.
	ContextWindow int `json:"context_window"`
	// MinNameLength is the minimum normalized name length of a span
	// worth indexing. Shorter spans are treated as extractor noise.
	MinNameLength int `json:"min_name_length"`
	// LabelMapping maps extractor labels to entity types. Spans with
	// unmapped labels are discarded.
	LabelMapping LabelMapping `json:"label_mapping,omitempty"`
}

// DefaultResolutionConfig returns the default resolution configuration
func DefaultResolutionConfig() ResolutionConfig {
	return ResolutionConfig{
		MatchThreshold:  0.85,
		ReviewThreshold: 0.7,
		ContextWindow:   50,
		MinNameLength:   2,
		LabelMapping:    DefaultLabelMapping(),
	}
}
