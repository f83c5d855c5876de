// internal/models/survey.go
package models

import (
	"strings"
	"time"
)

type AnswerType int

const (
	AnswerTypeChoice  AnswerType = 1
	AnswerTypeAddress AnswerType = 2
)

func (t AnswerType) Valid() bool {
	return t == AnswerTypeChoice || t == AnswerTypeAddress
}

func (t AnswerType) String() string {
	switch t {
	case AnswerTypeChoice:
		return "choice"
	case AnswerTypeAddress:
		return "address"
	}
	return "unknown"
}

// Response is one survey submission. It is soft-deleted only.
type Response struct {
	ID        string    `json:"id"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Address struct {
	State   string `json:"state"`
	City    string `json:"city"`
	Street  string `json:"street,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// Complete reports whether the address carries the fields location matching needs.
func (a *Address) Complete() bool {
	return a != nil && strings.TrimSpace(a.State) != "" && strings.TrimSpace(a.City) != ""
}

// AnswerInput is one submitted answer as it arrives at the ingestion boundary.
type AnswerInput struct {
	QuestionID      string     `json:"questionId"`
	Type            AnswerType `json:"type"`
	SelectedOption  *string    `json:"selectedOption,omitempty"`
	SelectedAddress *Address   `json:"selectedAddress,omitempty"`
}

// Answer is one stored (response, question) pair.
type Answer struct {
	ID              string     `json:"id"`
	ResponseID      string     `json:"responseId"`
	QuestionID      string     `json:"questionId"`
	Type            AnswerType `json:"type"`
	Position        int        `json:"position"`
	SelectedOption  string     `json:"selectedOption,omitempty"`
	SelectedAddress *Address   `json:"selectedAddress,omitempty"`
}

// FreeText returns the text used for language detection: the selection of a
// choice answer or the city of an address answer.
func (a Answer) FreeText() string {
	switch a.Type {
	case AnswerTypeChoice:
		return strings.TrimSpace(a.SelectedOption)
	case AnswerTypeAddress:
		if a.SelectedAddress != nil {
			return strings.TrimSpace(a.SelectedAddress.City)
		}
	}
	return ""
}

// AddressAnswer returns the first address answer of the set, if any.
func AddressAnswer(answers []Answer) (Answer, bool) {
	for _, a := range answers {
		if a.Type == AnswerTypeAddress && a.SelectedAddress != nil {
			return a, true
		}
	}
	return Answer{}, false
}
