package repository

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamRepository_ListByCategory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, category, question_text, answer_text`).
		WithArgs("network").
		WillReturnRows(pgxmock.NewRows([]string{"id", "category", "question_text", "answer_text"}).
			AddRow(int64(1), "network", "q1", "a1").
			AddRow(int64(2), "network", "q2", "a2"))

	repo := NewExamRepository(mock)
	exams, err := repo.ListByCategory(context.Background(), "network")
	require.NoError(t, err)
	require.Len(t, exams, 2)
	assert.Equal(t, "q1", exams[0].QuestionText)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepository_Categories(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT DISTINCT category FROM exam`).
		WillReturnRows(pgxmock.NewRows([]string{"category"}).
			AddRow("database").
			AddRow("network"))

	repo := NewExamRepository(mock)
	categories, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"database", "network"}, categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}
