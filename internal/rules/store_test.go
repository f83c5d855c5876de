// internal/rules/store_test.go
package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ruleColumns = []string{"id", "name", "operator", "id", "question_id", "operator", "accepted_values"}

func TestStore_LoadByName_GroupsConditionsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT r.id, r.name`).
		WithArgs("partner_recommendation").
		WillReturnRows(sqlmock.NewRows(ruleColumns).
			AddRow("rule-1", "partner_recommendation", "or", "c-1", "q1", "in", "{Indoor,Balcony}").
			AddRow("rule-1", "partner_recommendation", "or", "c-2", "q2", "equals", "{Large}").
			AddRow("rule-2", "partner_recommendation", "", nil, nil, nil, nil))

	rules, err := NewStore(db).LoadByName(context.Background(), "partner_recommendation")

	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Len(t, rules[0].Conditions, 2)
	assert.Equal(t, "q1", rules[0].Conditions[0].QuestionID)
	assert.Equal(t, []string{"Indoor", "Balcony"}, rules[0].Conditions[0].Values)
	assert.Equal(t, "q2", rules[0].Conditions[1].QuestionID)
	assert.Equal(t, "rule-2", rules[1].ID)
	assert.Empty(t, rules[1].Conditions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadByName_NoRules(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT r.id, r.name`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(ruleColumns))

	rules, err := NewStore(db).LoadByName(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Empty(t, rules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadByName_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT r.id, r.name`).
		WithArgs("partner_recommendation").
		WillReturnError(errors.New("connection reset"))

	rules, err := NewStore(db).LoadByName(context.Background(), "partner_recommendation")

	assert.Nil(t, rules)
	assert.True(t, errors.Is(err, ErrRuleLoadFailed))
	assert.Contains(t, err.Error(), "connection reset")
}
