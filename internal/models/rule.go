// internal/models/rule.go
package models

type ConditionOperator string

const (
	OperatorEquals ConditionOperator = "equals"
	OperatorIn     ConditionOperator = "in"
	OperatorAnd    ConditionOperator = "and"
	OperatorOr     ConditionOperator = "or"
)

type Condition struct {
	ID         string            `json:"id"`
	QuestionID string            `json:"questionId"`
	Operator   ConditionOperator `json:"operator"`
	Values     []string          `json:"values"`
}

// Rule is a named eligibility policy. Conditions keep declaration order.
type Rule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Operator   string      `json:"operator,omitempty"`
	Conditions []Condition `json:"conditions"`
}

// RuleMatch records which selection satisfied which rule.
type RuleMatch struct {
	QuestionID    string `json:"questionId"`
	SelectedValue string `json:"selectedValue"`
	RuleName      string `json:"ruleName"`
}
