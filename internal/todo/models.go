package todo

import "errors"

// ErrNotFound is returned by a Gateway when no record matches the identifier.
var ErrNotFound = errors.New("todo not found")

type Todo struct {
	ID        string `json:"id" bson:"_id"`
	Title     string `json:"title" bson:"title"`
	Completed bool   `json:"completed" bson:"completed"`
}

// Patch 描述一次部分更新，nil 字段保持原值
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Completed == nil
}

// ValidationError reports a candidate record that breaks the Todo schema.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "todo validation failed: " + e.Message
	}
	return "todo validation failed: " + e.Field + ": " + e.Message
}
