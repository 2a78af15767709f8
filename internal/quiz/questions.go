package quiz

import (
	"strings"
	"time"
)

// OptionCount is the fixed number of options on every authored question.
const OptionCount = 4

// DueDateLayout is the minute-precision local timestamp the API accepts for
// due dates.
const DueDateLayout = "2006-01-02T15:04"

const (
	msgIncompleteQuestion = "Please fill in all fields and select at least one correct option before adding the question."
	msgMissingName        = "Please enter a name for the quiz."
	msgMissingDueDate     = "Please set a due date for the quiz."
	msgNoQuestions        = "Please add at least one question to the quiz."
)

type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	Text    string   `json:"question_text"`
	Options []Option `json:"options"`
}

// Draft is the quiz being authored. It only lives in memory.
type Draft struct {
	Name      string
	DueDate   time.Time
	Questions []Question
}

// NewQuestion builds a question from the raw form inputs. Every option text
// and the question text must be non-blank and at least one index in correct
// must point at an option.
func NewQuestion(text string, options [OptionCount]string, correct []int) (Question, error) {
	if strings.TrimSpace(text) == "" {
		return Question{}, &ValidationError{Message: msgIncompleteQuestion}
	}
	for _, option := range options {
		if strings.TrimSpace(option) == "" {
			return Question{}, &ValidationError{Message: msgIncompleteQuestion}
		}
	}

	marked := make(map[int]bool, len(correct))
	for _, idx := range correct {
		if idx >= 0 && idx < OptionCount {
			marked[idx] = true
		}
	}
	if len(marked) == 0 {
		return Question{}, &ValidationError{Message: msgIncompleteQuestion}
	}

	built := Question{
		Text:    text,
		Options: make([]Option, OptionCount),
	}
	for idx, option := range options {
		built.Options[idx] = Option{
			Text:      option,
			IsCorrect: marked[idx],
		}
	}
	return built, nil
}

// Validate checks the draft is ready to be submitted. It does not look at the
// author; that belongs to the session.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Message: msgMissingName}
	}
	if d.DueDate.IsZero() {
		return &ValidationError{Message: msgMissingDueDate}
	}
	if len(d.Questions) == 0 {
		return &ValidationError{Message: msgNoQuestions}
	}
	return nil
}

func (d *Draft) Reset() {
	d.Name = ""
	d.DueDate = time.Time{}
	d.Questions = nil
}
