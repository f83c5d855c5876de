// internal/rules/engine.go

// Package rules evaluates admin-authored eligibility rules against a
// response's answers.
//
// Matching is OR across a rule's conditions: conditions are checked in
// declaration order and the first one whose value set contains the selected
// option matches the rule. Every operator (equals, in, and, or) reduces to that
// membership test.
package rules

import (
	"strings"

	"survey-recommender/internal/models"
)

// Result is the outcome of one evaluation.
type Result struct {
	Matched []models.Rule
	Matches []models.RuleMatch
}

func (r *Result) Any() bool {
	return len(r.Matched) > 0
}

// SelectedValues returns the distinct matched selections in first-seen order.
func (r *Result) SelectedValues() []string {
	seen := make(map[string]bool, len(r.Matches))
	out := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		if seen[m.SelectedValue] {
			continue
		}
		seen[m.SelectedValue] = true
		out = append(out, m.SelectedValue)
	}
	return out
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate returns the rules matched by answers, in rule order.
func (e *Engine) Evaluate(rules []models.Rule, answers []models.Answer) *Result {
	choices := choiceAnswers(answers)

	result := &Result{}
	for _, rule := range rules {
		match, ok := firstMatch(rule, choices)
		if !ok {
			continue
		}
		result.Matched = append(result.Matched, rule)
		result.Matches = append(result.Matches, match)
	}
	return result
}

// choiceAnswers keys choice selections by question. Address answers never
// satisfy a condition.
func choiceAnswers(answers []models.Answer) map[string]string {
	choices := make(map[string]string, len(answers))
	for _, a := range answers {
		if a.Type == models.AnswerTypeChoice {
			choices[a.QuestionID] = a.SelectedOption
		}
	}
	return choices
}

func firstMatch(rule models.Rule, choices map[string]string) (models.RuleMatch, bool) {
	for _, cond := range rule.Conditions {
		selected, ok := choices[cond.QuestionID]
		if !ok {
			continue
		}
		if conditionMatches(cond, selected) {
			return models.RuleMatch{
				QuestionID:    cond.QuestionID,
				SelectedValue: selected,
				RuleName:      rule.Name,
			}, true
		}
	}
	return models.RuleMatch{}, false
}

// TODO: differentiate and/or once product decides whether they compose
// multiple conditions of one rule.
func conditionMatches(cond models.Condition, selected string) bool {
	if strings.TrimSpace(selected) == "" {
		return false
	}
	for _, v := range cond.Values {
		if v == selected {
			return true
		}
	}
	return false
}
