package model

// IndexResult summarizes one chapter re-index run
type IndexResult struct {
	EntitiesCreated int `json:"entities_created"`
	EntitiesMatched int `json:"entities_matched"`
	MentionsCreated int `json:"mentions_created"`
}

// DuplicateGroup is a set of entities of one type whose names score above
// the review threshold against the group's seed entity. Groups are surfaced
// for human review, never merged automatically.
type DuplicateGroup struct {
	Members             []*Entity `json:"members"`
	RepresentativeScore float64   `json:"representative_score"`
}

// MergeResult summarizes a merge operation
type MergeResult struct {
	EntitiesMerged     int     `json:"entities_merged"`
	MentionsReassigned int     `json:"mentions_reassigned"`
	SkippedIDs         []int64 `json:"skipped_ids,omitempty"`
}
