package repository

import (
	"context"

	"github.com/spec-kit/exam-service/internal/domain"
)

// ExamRepository defines read access to the exam bank.
type ExamRepository interface {
	ListByCategory(ctx context.Context, category string) ([]domain.Exam, error)
	Categories(ctx context.Context) ([]string, error)
}

type examRepository struct {
	db DB
}

// NewExamRepository returns a Postgres-backed implementation.
func NewExamRepository(db DB) ExamRepository {
	return &examRepository{db: db}
}

// ListByCategory returns all questions in a category; an empty category
// returns the whole bank.
func (r *examRepository) ListByCategory(ctx context.Context, category string) ([]domain.Exam, error) {
	const query = `
        SELECT id, category, question_text, answer_text
        FROM exam
        WHERE ($1 = '' OR category = $1)
        ORDER BY id`

	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []domain.Exam
	for rows.Next() {
		var exam domain.Exam
		if err := rows.Scan(&exam.ID, &exam.Category, &exam.QuestionText, &exam.AnswerText); err != nil {
			return nil, err
		}
		exams = append(exams, exam)
	}
	return exams, rows.Err()
}

func (r *examRepository) Categories(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT category FROM exam ORDER BY category`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}
