package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ConflictType names the resource involved in a conflict.
type ConflictType string

const (
	ConflictTypeFaculty ConflictType = "faculty"
	ConflictTypeBatch   ConflictType = "batch"
	ConflictTypeRoom    ConflictType = "room"
)

// Conflict reports an unschedulable requirement (no session ids) or a double booking.
type Conflict struct {
	Type       ConflictType `json:"type"`
	Message    string       `json:"message"`
	SessionIDs []string     `json:"session_ids"`
}

// ConflictList is persisted as JSONB on timetables.
type ConflictList []Conflict

// Value marshals the list to JSON.
func (c ConflictList) Value() (driver.Value, error) {
	if c == nil {
		c = ConflictList{}
	}
	data, err := json.Marshal([]Conflict(c))
	if err != nil {
		return nil, fmt.Errorf("marshal conflicts: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON conflict list.
func (c *ConflictList) Scan(value interface{}) error {
	var list []Conflict
	if _, err := scanJSON(value, &list, "conflicts"); err != nil {
		return err
	}
	if list == nil {
		list = []Conflict{}
	}
	*c = ConflictList(list)
	return nil
}
