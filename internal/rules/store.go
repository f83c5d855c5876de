// internal/rules/store.go
package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"survey-recommender/internal/models"

	"github.com/lib/pq"
)

var (
	ErrRuleLoadFailed = errors.New("RULE_LOAD_FAILED")
)

// Source loads the live rules registered under a policy name.
type Source interface {
	LoadByName(ctx context.Context, name string) ([]models.Rule, error)
}

// Store reads rules and their conditions from Postgres. Soft-deleted rules are skipped.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) LoadByName(ctx context.Context, name string) ([]models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, COALESCE(r.operator, ''),
		       c.id, c.question_id, c.operator, c.accepted_values
		FROM rules r
		LEFT JOIN rule_conditions c ON c.rule_id = r.id
		WHERE r.name = $1 AND r.deleted = false
		ORDER BY r.created_at, r.id, c.position`, name)
	if err != nil {
		return nil, fmt.Errorf("%w: query rules %q: %v", ErrRuleLoadFailed, name, err)
	}
	defer rows.Close()

	var (
		rules []models.Rule
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			ruleID, ruleName, ruleOp string
			condID, questionID, op   sql.NullString
			values                   []string
		)
		if err := rows.Scan(&ruleID, &ruleName, &ruleOp, &condID, &questionID, &op, pq.Array(&values)); err != nil {
			return nil, fmt.Errorf("%w: scan rule row: %v", ErrRuleLoadFailed, err)
		}

		i, ok := index[ruleID]
		if !ok {
			rules = append(rules, models.Rule{ID: ruleID, Name: ruleName, Operator: ruleOp, Conditions: []models.Condition{}})
			i = len(rules) - 1
			index[ruleID] = i
		}
		if !condID.Valid {
			continue
		}
		rules[i].Conditions = append(rules[i].Conditions, models.Condition{
			ID:         condID.String,
			QuestionID: questionID.String,
			Operator:   models.ConditionOperator(op.String),
			Values:     values,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rules: %v", ErrRuleLoadFailed, err)
	}

	return rules, nil
}
