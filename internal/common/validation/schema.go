// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (vr *ValidationResult) add(field, message, code string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message, Code: code})
	vr.Valid = false
}

func (vr *ValidationResult) merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for _, e := range other.Errors {
		vr.add(e.Field, e.Message, e.Code)
	}
}

// Schema is a compiled JSON schema validating raw documents.
type Schema struct {
	schema *gojsonschema.Schema
}

func MustCompile(source string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("validation: invalid schema: %v", err))
	}
	return &Schema{schema: s}
}

// ValidateBytes validates a raw JSON document. A malformed document yields
// a single error on the root field rather than a Go error.
func (s *Schema) ValidateBytes(doc []byte) *ValidationResult {
	out := &ValidationResult{Valid: true}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		out.add("(root)", "request body is not valid JSON", "INVALID_JSON")
		return out
	}

	for _, desc := range result.Errors() {
		out.add(fieldPath(desc), desc.Description(), strings.ToUpper(desc.Type()))
	}
	return out
}

// fieldPath turns gojsonschema's dotted context ("answers.0.type") into
// the bracketed form used in API responses ("answers[0].type").
func fieldPath(desc gojsonschema.ResultError) string {
	parts := strings.Split(desc.Field(), ".")
	if prop, ok := desc.Details()["property"].(string); ok && desc.Type() == "required" && parts[len(parts)-1] != prop {
		parts = append(parts, prop)
	}

	var b strings.Builder
	for i, part := range parts {
		if part == "(root)" && len(parts) > 1 {
			continue
		}
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
