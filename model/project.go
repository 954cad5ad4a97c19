package model

import (
	"time"

	"github.com/google/uuid"
)

// Project represents one manuscript, the ownership scope for chapters and entities
type Project struct {
	ID           int64     `json:"id"`
	RID          uuid.UUID `json:"rid"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	IsOwnWriting bool      `json:"is_own_writing"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
