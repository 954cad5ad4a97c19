package model

import (
	"time"
)

// EntityType classifies a tracked entity
type EntityType string

const (
	EntityTypeCharacter    EntityType = "character"
	EntityTypeLocation     EntityType = "location"
	EntityTypeOrganization EntityType = "organization"
	EntityTypeItem         EntityType = "item"
	EntityTypeConcept      EntityType = "concept"
)

// EntityTypes lists all valid entity types
var EntityTypes = []EntityType{
	EntityTypeCharacter,
	EntityTypeLocation,
	EntityTypeOrganization,
	EntityTypeItem,
	EntityTypeConcept,
}

// Valid reports whether t is one of the known entity types
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeCharacter, EntityTypeLocation, EntityTypeOrganization, EntityTypeItem, EntityTypeConcept:
		return true
	}
	return false
}

// Entity represents a named entity (character, location, organization, item, concept)
// tracked across the chapters of one project. Name holds the canonical display form,
// Aliases the alternate surface forms collected through merges and edits.
type Entity struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Name        string     `json:"name"`
	Type        EntityType `json:"entity_type"`
	Description string     `json:"description,omitempty"`
	Aliases     Aliases    `json:"aliases"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	// Results
	MentionCount    int  `json:"mention_count,omitempty"`
	FirstAppearance *int `json:"first_appearance,omitempty"`
	LastAppearance  *int `json:"last_appearance,omitempty"`
}
