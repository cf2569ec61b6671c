package repository

import (
	"context"

	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListBySurvey returns a survey's questions in presentation order.
func (r *QuestionRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, survey_id, question_text, question_type, options, required, order_num
		 FROM questions WHERE survey_id = $1
		 ORDER BY order_num ASC`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.QuestionText, &q.QuestionType,
			&q.Options, &q.Required, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountBySurvey returns the number of questions a survey has.
func (r *QuestionRepository) CountBySurvey(ctx context.Context, surveyID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE survey_id = $1`, surveyID).Scan(&n)
	return n, err
}

// Add inserts a single question.
func (r *QuestionRepository) Add(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (survey_id, question_text, question_type, options, required, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		q.SurveyID, q.QuestionText, q.QuestionType, q.Options, q.Required, q.OrderNum,
	).Scan(&q.ID)
}

// ReplaceAll swaps a survey's entire question list inside one transaction.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, surveyID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE survey_id = $1`, surveyID); err != nil {
		return err
	}

	for i := range questions {
		q := &questions[i]
		q.SurveyID = surveyID
		if err := tx.QueryRow(ctx,
			`INSERT INTO questions (survey_id, question_text, question_type, options, required, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			q.SurveyID, q.QuestionText, q.QuestionType, q.Options, q.Required, q.OrderNum,
		).Scan(&q.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
