package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	"github.com/siherrmann/lorekeeper/helper"
)

// Aliases represents the set of alternate surface forms of an entity,
// stored as a JSONB array in PostgreSQL. Order is insertion order,
// duplicates are never stored.
type Aliases []string

// Value implements the driver.Valuer interface for database storage
func (a Aliases) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for database retrieval
func (a *Aliases) Scan(value interface{}) error {
	if value == nil {
		*a = Aliases{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, a)
}

// Contains reports whether the alias set already holds name, case-insensitively
func (a Aliases) Contains(name string) bool {
	for _, alias := range a {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

// Add returns the alias set with name appended if not already present.
// Empty names are ignored.
func (a Aliases) Add(name string) Aliases {
	if name == "" || a.Contains(name) {
		return a
	}
	return append(a, name)
}

// Union returns the alias set extended by all given names, deduplicated
func (a Aliases) Union(names ...string) Aliases {
	result := a
	for _, name := range names {
		result = result.Add(name)
	}
	return result
}
