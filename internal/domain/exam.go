package domain

// Exam is a single question/answer entry in the exam bank.
type Exam struct {
	ID           int64
	Category     string
	QuestionText string
	AnswerText   string
}
