package trivia

import "strings"

// Question is a prompt and its expected answer.
type Question struct {
	Prompt string `json:"pregunta"`
	Answer string `json:"respuesta"`
}

// Matches reports whether answer is correct. Comparison ignores case and
// surrounding whitespace.
func (q *Question) Matches(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(q.Answer), strings.TrimSpace(answer))
}

// QuestionSource hands out questions for a category.
type QuestionSource interface {
	// RandomQuestion returns a random question from the category, or
	// ErrNoQuestions if there aren't any.
	RandomQuestion(Category) (*Question, error)
}
