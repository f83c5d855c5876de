// internal/models/question.go
package models

// QuestionCategory tags a survey question with the matcher slot it feeds.
type QuestionCategory string

const (
	CategorySpaceType      QuestionCategory = "space_type"
	CategoryAreaSize       QuestionCategory = "area_size"
	CategoryChallenge      QuestionCategory = "challenge"
	CategoryTechPreference QuestionCategory = "tech_preference"
	CategoryLocation       QuestionCategory = "location"
)

var questionCategoryLabels = map[QuestionCategory]string{
	CategorySpaceType:      "space type",
	CategoryAreaSize:       "area size",
	CategoryChallenge:      "challenge",
	CategoryTechPreference: "tech preference",
	CategoryLocation:       "location",
}

func (c QuestionCategory) Valid() bool {
	_, ok := questionCategoryLabels[c]
	return ok
}

// Label is the human-readable name used in match reasons.
func (c QuestionCategory) Label() string {
	if l, ok := questionCategoryLabels[c]; ok {
		return l
	}
	return string(c)
}

type Question struct {
	ID       string           `json:"id"`
	Category QuestionCategory `json:"category,omitempty"`
}
