package models

import "github.com/google/uuid"

// Instructor defines the instructor model based on the 'instructors' table.
// Name is the natural key and is unique across the whole store.
type Instructor struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Faculty           string    `json:"faculty" db:"faculty"`
	PredominantMethod *string   `json:"predominant_method,omitempty" db:"predominant_method"` // Nullable
}

// ToRecord returns the insertable column map; the id is assigned by the store.
func (i Instructor) ToRecord() map[string]any {
	return map[string]any{
		"name":               i.Name,
		"faculty":            i.Faculty,
		"predominant_method": i.PredominantMethod,
	}
}
