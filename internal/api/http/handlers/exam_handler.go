package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exam-service/internal/api/dto"
	"github.com/spec-kit/exam-service/internal/domain"
	"github.com/spec-kit/exam-service/internal/service"
	apperrors "github.com/spec-kit/exam-service/pkg/util"
)

const defaultRandomCount = 5

// ExamHandler exposes the protected exam bank endpoints.
type ExamHandler struct {
	exams *service.ExamService
}

// NewExamHandler constructs handler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{exams: examService}
}

// Random handles GET /api/exam/random?category=&count=.
func (h *ExamHandler) Random(c *fiber.Ctx) error {
	count := defaultRandomCount
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.NewValidationError("count must be an integer", nil)
		}
		count = parsed
	}

	exams, err := h.exams.Random(c.UserContext(), c.Query("category"), count)
	if err != nil {
		return err
	}
	return c.JSON(dto.ExamRandomResponse{Questions: toExamQuestions(exams)})
}

// Categories handles GET /api/exam/categories.
func (h *ExamHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.exams.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.ExamCategoriesResponse{Categories: categories})
}

func toExamQuestions(exams []domain.Exam) []dto.ExamQuestion {
	questions := make([]dto.ExamQuestion, 0, len(exams))
	for _, exam := range exams {
		questions = append(questions, dto.ExamQuestion{
			ID:           exam.ID,
			Category:     exam.Category,
			QuestionText: exam.QuestionText,
			AnswerText:   exam.AnswerText,
		})
	}
	return questions
}
