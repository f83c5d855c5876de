// internal/answers/store.go
package answers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"survey-recommender/internal/common/database"
	"survey-recommender/internal/models"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrResponseNotFound = errors.New("RESPONSE_NOT_FOUND")
	ErrInsertFailed     = errors.New("DATABASE_INSERT_FAILED")
	ErrQueryFailed      = errors.New("QUERY_EXECUTION_FAILED")
	ErrUpdateFailed     = errors.New("DATABASE_UPDATE_FAILED")
)

const (
	insertResponseQuery = `
		INSERT INTO survey_responses (id, deleted, created_at, updated_at)
		VALUES ($1, false, $2, $2)`

	insertAnswersQuery = `
		INSERT INTO survey_answers (
			id, response_id, question_id, answer_type, position,
			selected_option, selected_address, created_at, updated_at
		)
		SELECT v.id::uuid, $1, v.question_id::uuid, v.answer_type, v.position,
		       v.selected_option, v.selected_address::jsonb, $2, $2
		FROM unnest($3::text[], $4::text[], $5::int[], $6::int[], $7::text[], $8::text[])
		     AS v(id, question_id, answer_type, position, selected_option, selected_address)`

	loadAnswersQuery = `
		SELECT a.id, a.response_id, a.question_id, a.answer_type, a.position,
		       COALESCE(a.selected_option, ''), a.selected_address
		FROM survey_answers a
		JOIN survey_responses r ON r.id = a.response_id
		WHERE a.response_id = $1 AND r.deleted = false
		ORDER BY a.position, a.id`

	applyNormalizationQuery = `
		UPDATE survey_answers a
		SET selected_option = v.selected_option,
		    selected_address = v.selected_address::jsonb,
		    updated_at = NOW()
		FROM unnest($2::text[], $3::text[], $4::text[]) AS v(question_id, selected_option, selected_address)
		WHERE a.response_id = $1 AND a.question_id = v.question_id::uuid`
)

// Store persists responses and their answers in Postgres.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

// Create inserts a response and all of its answers in one transaction and
// returns the stored answers. Nothing is persisted when any insert fails.
func (s *Store) Create(ctx context.Context, inputs []models.AnswerInput) (string, []models.Answer, error) {
	responseID := s.newID()
	now := s.now()

	stored := make([]models.Answer, len(inputs))
	cols := answerColumns{}
	for i, in := range inputs {
		a := models.Answer{
			ID:         s.newID(),
			ResponseID: responseID,
			QuestionID: in.QuestionID,
			Type:       in.Type,
			Position:   i,
		}
		if in.SelectedOption != nil {
			a.SelectedOption = *in.SelectedOption
		}
		if in.Type == models.AnswerTypeAddress {
			a.SelectedAddress = in.SelectedAddress
		}
		stored[i] = a

		if err := cols.add(a); err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
		}
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertResponseQuery, responseID, now); err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertAnswersQuery,
			responseID, now,
			pq.Array(cols.ids), pq.Array(cols.questionIDs), pq.Array(cols.types), pq.Array(cols.positions),
			pq.Array(cols.options), pq.Array(cols.addresses),
		); err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	return responseID, stored, nil
}

// LoadByResponse returns the answers of a live response in submission order.
func (s *Store) LoadByResponse(ctx context.Context, responseID string) ([]models.Answer, error) {
	if _, err := uuid.Parse(responseID); err != nil {
		return nil, ErrResponseNotFound
	}

	rows, err := s.db.QueryContext(ctx, loadAnswersQuery, responseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []models.Answer
	for rows.Next() {
		var (
			a       models.Answer
			answerT int
			address []byte
		)
		if err := rows.Scan(&a.ID, &a.ResponseID, &a.QuestionID, &answerT, &a.Position, &a.SelectedOption, &address); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		a.Type = models.AnswerType(answerT)
		if len(address) > 0 {
			var addr models.Address
			if err := json.Unmarshal(address, &addr); err != nil {
				return nil, fmt.Errorf("%w: answer %s has unreadable address: %v", ErrQueryFailed, a.ID, err)
			}
			a.SelectedAddress = &addr
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	if len(out) == 0 {
		return nil, ErrResponseNotFound
	}
	return out, nil
}

// ApplyNormalization rewrites the stored values of the given answers in one
// statement keyed by (response, question).
func (s *Store) ApplyNormalization(ctx context.Context, responseID string, answers []models.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	cols := answerColumns{}
	for _, a := range answers {
		if err := cols.add(a); err != nil {
			return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
		}
	}

	res, err := s.db.ExecContext(ctx, applyNormalizationQuery,
		responseID, pq.Array(cols.questionIDs), pq.Array(cols.options), pq.Array(cols.addresses))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: no answers matched response %s", ErrUpdateFailed, responseID)
	}
	return nil
}

type answerColumns struct {
	ids         []string
	questionIDs []string
	types       []int64
	positions   []int64
	options     []sql.NullString
	addresses   []sql.NullString
}

func (c *answerColumns) add(a models.Answer) error {
	c.ids = append(c.ids, a.ID)
	c.questionIDs = append(c.questionIDs, a.QuestionID)
	c.types = append(c.types, int64(a.Type))
	c.positions = append(c.positions, int64(a.Position))

	switch a.Type {
	case models.AnswerTypeAddress:
		data, err := json.Marshal(a.SelectedAddress)
		if err != nil {
			return err
		}
		c.options = append(c.options, sql.NullString{})
		c.addresses = append(c.addresses, sql.NullString{String: string(data), Valid: a.SelectedAddress != nil})
	default:
		c.options = append(c.options, sql.NullString{String: a.SelectedOption, Valid: true})
		c.addresses = append(c.addresses, sql.NullString{})
	}
	return nil
}
