package todo

import (
	"errors"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const todoSchemaJSON = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"completed": {"type": "boolean"}
	},
	"required": ["title"]
}`

const patchSchemaJSON = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"completed": {"type": "boolean"}
	}
}`

var (
	todoSchema  = jsonschema.MustCompileString("todo.json", todoSchemaJSON)
	patchSchema = jsonschema.MustCompileString("todo-patch.json", patchSchemaJSON)
)

// schemaFields 之外的字段会被丢弃，不参与校验也不落库
var schemaFields = []string{"title", "completed"}

// ValidateTodo checks a creation candidate and returns the normalized record.
// Title is trimmed and completed defaults to false. The returned Todo carries
// no identifier; the gateway assigns one on insert.
func ValidateTodo(candidate map[string]any) (Todo, error) {
	doc := normalize(candidate)
	if err := todoSchema.Validate(doc); err != nil {
		return Todo{}, toValidationError(err)
	}

	todo := Todo{Title: doc["title"].(string)}
	if completed, ok := doc["completed"].(bool); ok {
		todo.Completed = completed
	}
	return todo, nil
}

// ValidatePatch checks an update payload. At least one known field is required.
func ValidatePatch(candidate map[string]any) (Patch, error) {
	doc := normalize(candidate)
	if len(doc) == 0 {
		return Patch{}, &ValidationError{Message: "provide title or completed"}
	}
	if err := patchSchema.Validate(doc); err != nil {
		return Patch{}, toValidationError(err)
	}

	var patch Patch
	if title, ok := doc["title"].(string); ok {
		patch.Title = &title
	}
	if completed, ok := doc["completed"].(bool); ok {
		patch.Completed = &completed
	}
	return patch, nil
}

func normalize(candidate map[string]any) map[string]any {
	doc := make(map[string]any, len(schemaFields))
	for _, field := range schemaFields {
		value, ok := candidate[field]
		if !ok {
			continue
		}
		if s, isString := value.(string); isString {
			value = strings.TrimSpace(s)
		}
		doc[field] = value
	}
	return doc
}

func toValidationError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Message: err.Error()}
	}
	if leaf := firstLeaf(ve); leaf != nil {
		return &ValidationError{
			Field:   strings.TrimPrefix(leaf.InstanceLocation, "/"),
			Message: leaf.Message,
		}
	}
	return &ValidationError{Message: ve.Message}
}

// firstLeaf 深度优先找到第一个没有子原因的错误，它描述了具体字段
func firstLeaf(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return err
	}
	for _, cause := range err.Causes {
		if leaf := firstLeaf(cause); leaf != nil {
			return leaf
		}
	}
	return nil
}
