package dto

// ExamQuestion is a single question in an exam response.
type ExamQuestion struct {
	ID           int64  `json:"id"`
	Category     string `json:"category"`
	QuestionText string `json:"questionText"`
	AnswerText   string `json:"answerText"`
}

// ExamRandomResponse wraps a random draw from the exam bank.
type ExamRandomResponse struct {
	Questions []ExamQuestion `json:"questions"`
}

// ExamCategoriesResponse lists available categories.
type ExamCategoriesResponse struct {
	Categories []string `json:"categories"`
}
