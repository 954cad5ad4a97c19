package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Chapter represents one chapter of a project's manuscript
type Chapter struct {
	ID            int64     `json:"id"`
	RID           uuid.UUID `json:"rid"`
	ProjectID     int64     `json:"project_id"`
	ChapterNumber int       `json:"chapter_number"`
	Title         string    `json:"title,omitempty"`
	Content       string    `json:"content"`
	Notes         string    `json:"notes,omitempty"`
	WordCount     int       `json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChapterVersion is a point-in-time snapshot of a chapter's content
type ChapterVersion struct {
	ID            int64     `json:"id"`
	ChapterID     int64     `json:"chapter_id"`
	VersionNumber int       `json:"version_number"`
	Content       string    `json:"content"`
	Notes         string    `json:"notes,omitempty"`
	WordCount     int       `json:"word_count"`
	ChangeSummary string    `json:"change_summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CountWords returns the whitespace-separated word count of content
func CountWords(content string) int {
	return len(strings.Fields(content))
}
