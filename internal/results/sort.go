package results

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"quiz-dashboard/internal/quiz"
)

type SortKey string

const (
	KeyStudent        SortKey = "student_username"
	KeyScore          SortKey = "score"
	KeyAttemptDate    SortKey = "attempt_date"
	KeyTotalQuestions SortKey = "total_questions"
	KeyCorrectAnswers SortKey = "correct_answers"
	KeyTimeTaken      SortKey = "time_taken"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortState struct {
	Key       SortKey
	Direction Direction
}

// DefaultSortState is the state before the user picks a column.
var DefaultSortState = SortState{Key: KeyScore, Direction: Desc}

// Next returns the state after the user selects key. Selecting the active
// key while descending flips to ascending; anything else starts descending.
func (s SortState) Next(key SortKey) SortState {
	if s.Key == key && s.Direction == Desc {
		return SortState{Key: key, Direction: Asc}
	}
	return SortState{Key: key, Direction: Desc}
}

// ParseSortKey maps user input onto a sort key. Short aliases are accepted.
func ParseSortKey(value string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "student", "student_username", "username", "name":
		return KeyStudent, true
	case "score":
		return KeyScore, true
	case "date", "attempt_date":
		return KeyAttemptDate, true
	case "total", "total_questions":
		return KeyTotalQuestions, true
	case "correct", "correct_answers":
		return KeyCorrectAnswers, true
	case "time", "time_taken":
		return KeyTimeTaken, true
	default:
		return "", false
	}
}

// SortAttempts returns a sorted copy of attempts. The input is not modified.
// Ties keep their original relative order.
func SortAttempts(attempts []quiz.Attempt, state SortState) []quiz.Attempt {
	sorted := slices.Clone(attempts)

	var compare func(a, b quiz.Attempt) int
	switch state.Key {
	case KeyStudent:
		collator := collate.New(language.Und)
		compare = func(a, b quiz.Attempt) int {
			return collator.CompareString(a.StudentUsername, b.StudentUsername)
		}
	case KeyAttemptDate:
		compare = func(a, b quiz.Attempt) int {
			return a.AttemptDate.Compare(b.AttemptDate)
		}
	default:
		value := numericField(state.Key)
		compare = func(a, b quiz.Attempt) int {
			return value(a) - value(b)
		}
	}

	if state.Direction == Asc {
		slices.SortStableFunc(sorted, compare)
	} else {
		slices.SortStableFunc(sorted, func(a, b quiz.Attempt) int {
			return compare(b, a)
		})
	}
	return sorted
}

// numericField returns the accessor for a numeric column. Missing optional
// values count as zero.
func numericField(key SortKey) func(quiz.Attempt) int {
	switch key {
	case KeyTotalQuestions:
		return func(a quiz.Attempt) int { return a.TotalQuestions }
	case KeyCorrectAnswers:
		return func(a quiz.Attempt) int { return derefOrZero(a.CorrectAnswers) }
	case KeyTimeTaken:
		return func(a quiz.Attempt) int { return derefOrZero(a.TimeTaken) }
	default:
		return func(a quiz.Attempt) int { return a.Score }
	}
}

func derefOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// FilterAttempts keeps attempts whose username contains term, ignoring case.
// An empty term keeps everything.
func FilterAttempts(attempts []quiz.Attempt, term string) []quiz.Attempt {
	term = strings.TrimSpace(term)
	if term == "" {
		return slices.Clone(attempts)
	}

	fold := cases.Fold()
	needle := fold.String(term)
	filtered := make([]quiz.Attempt, 0, len(attempts))
	for _, attempt := range attempts {
		if strings.Contains(fold.String(attempt.StudentUsername), needle) {
			filtered = append(filtered, attempt)
		}
	}
	return filtered
}
