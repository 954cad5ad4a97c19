package model

// Mention is one recorded occurrence of an entity in a chapter.
// StartPos and EndPos are rune offsets into the chapter content as it
// was at indexing time, MentionedAs the verbatim extracted text and
// Context a bounded window of surrounding content.
type Mention struct {
	ID          int64  `json:"id"`
	EntityID    int64  `json:"entity_id"`
	ChapterID   int64  `json:"chapter_id"`
	StartPos    int    `json:"start_pos"`
	EndPos      int    `json:"end_pos"`
	Context     string `json:"context"`
	MentionedAs string `json:"mentioned_as"`
	// Results
	ChapterNumber int    `json:"chapter_number,omitempty"`
	ChapterTitle  string `json:"chapter_title,omitempty"`
}
