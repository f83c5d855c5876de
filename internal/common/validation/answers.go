// internal/common/validation/answers.go
package validation

import (
	"fmt"
	"strings"

	"survey-recommender/internal/models"

	"github.com/google/uuid"
)

const answerSubmissionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["answers"],
  "properties": {
    "answers": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["questionId", "type"],
        "properties": {
          "questionId": {
            "type": "string",
            "pattern": "^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$"
          },
          "type": { "type": "integer", "enum": [1, 2] },
          "selectedOption": { "type": ["string", "null"] },
          "selectedAddress": {
            "type": ["object", "null"],
            "properties": {
              "state":   { "type": "string" },
              "city":    { "type": "string" },
              "street":  { "type": "string" },
              "country": { "type": "string" },
              "zipCode": { "type": "string" }
            }
          }
        },
        "allOf": [
          {
            "if": { "properties": { "type": { "const": 1 } } },
            "then": {
              "required": ["selectedOption"],
              "properties": { "selectedOption": { "type": "string", "minLength": 1 } }
            }
          },
          {
            "if": { "properties": { "type": { "const": 2 } } },
            "then": {
              "required": ["selectedAddress"],
              "properties": {
                "selectedAddress": {
                  "type": "object",
                  "required": ["state", "city"],
                  "properties": {
                    "state": { "type": "string", "minLength": 1 },
                    "city":  { "type": "string", "minLength": 1 }
                  }
                }
              }
            }
          }
        ]
      }
    }
  }
}`

var submissionSchema = MustCompile(answerSubmissionSchema)

// ValidateSubmissionBody checks the raw POST /answers body against the
// submission schema.
func ValidateSubmissionBody(body []byte) *ValidationResult {
	return submissionSchema.ValidateBytes(body)
}

// ValidateAnswers checks kind-appropriate value presence and the
// one-answer-per-question invariant on decoded inputs.
func ValidateAnswers(inputs []models.AnswerInput) *ValidationResult {
	out := &ValidationResult{Valid: true}
	if len(inputs) == 0 {
		out.add("answers", "at least one answer is required", "MIN_ITEMS")
		return out
	}

	seen := make(map[string]int, len(inputs))
	for i, in := range inputs {
		prefix := fmt.Sprintf("answers[%d]", i)
		out.merge(validateAnswer(prefix, in))

		if in.QuestionID == "" {
			continue
		}
		key := questionKey(in.QuestionID)
		if first, dup := seen[key]; dup {
			out.add(prefix+".questionId",
				fmt.Sprintf("question already answered at answers[%d]", first), "DUPLICATE_QUESTION")
			continue
		}
		seen[key] = i
	}
	return out
}

// questionKey is the form the store compares question ids in: the canonical
// UUID when the id parses as one.
func questionKey(id string) string {
	if parsed, err := uuid.Parse(strings.TrimSpace(id)); err == nil {
		return parsed.String()
	}
	return strings.ToLower(strings.TrimSpace(id))
}

func validateAnswer(prefix string, in models.AnswerInput) *ValidationResult {
	out := &ValidationResult{Valid: true}

	if strings.TrimSpace(in.QuestionID) == "" {
		out.add(prefix+".questionId", "questionId is required", "REQUIRED")
	}

	switch in.Type {
	case models.AnswerTypeChoice:
		if in.SelectedOption == nil || strings.TrimSpace(*in.SelectedOption) == "" {
			out.add(prefix+".selectedOption", "selectedOption is required for choice answers", "REQUIRED")
		}
	case models.AnswerTypeAddress:
		if in.SelectedAddress == nil {
			out.add(prefix+".selectedAddress", "selectedAddress is required for address answers", "REQUIRED")
			break
		}
		if strings.TrimSpace(in.SelectedAddress.State) == "" {
			out.add(prefix+".selectedAddress.state", "state is required", "REQUIRED")
		}
		if strings.TrimSpace(in.SelectedAddress.City) == "" {
			out.add(prefix+".selectedAddress.city", "city is required", "REQUIRED")
		}
	default:
		out.add(prefix+".type", fmt.Sprintf("unsupported answer type %d", in.Type), "ENUM")
	}
	return out
}
