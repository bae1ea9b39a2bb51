package models

import (
	"fmt"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RecordIDString safely extracts the string ID from a SurrealDB RecordID.
// Returns an error if the ID is not a string type.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

// OptionalRecordIDString converts a nullable record link to a nullable id.
func OptionalRecordIDString(id *surrealmodels.RecordID) (*string, error) {
	if id == nil {
		return nil, nil
	}
	s, err := RecordIDString(*id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// NewRecordID builds a record link for table, or nil when id is nil or empty.
func NewRecordID(table string, id *string) *surrealmodels.RecordID {
	if id == nil || *id == "" {
		return nil
	}
	rid := surrealmodels.NewRecordID(table, *id)
	return &rid
}
