package results

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"quiz-dashboard/internal/quiz"
)

const (
	notAvailable = "N/A"

	// DateLayout formats attempt dates in exports and listings.
	DateLayout = "2006-01-02 15:04:05"
)

var csvHeader = []string{
	"Student",
	"Quiz Name",
	"Score",
	"Total Questions",
	"Correct Answers",
	"Attempt Date",
	"Time Taken (s)",
	"Quiz Code",
	"Student ID",
	"Attempt ID",
}

// WriteCSV writes the fixed header and one row per attempt, in the order
// given. Fields containing a comma, quote or newline are quoted.
func WriteCSV(w io.Writer, attempts []quiz.Attempt, quizName string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, attempt := range attempts {
		record := []string{
			attempt.StudentUsername,
			quizName,
			strconv.Itoa(attempt.Score),
			strconv.Itoa(attempt.TotalQuestions),
			optionalInt(attempt.CorrectAnswers),
			FormatDate(attempt.AttemptDate),
			optionalInt(attempt.TimeTaken),
			attempt.QuizCode,
			strconv.FormatInt(attempt.StudentID, 10),
			strconv.FormatInt(attempt.AttemptID, 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportFilename is the file name an export of quizName is saved under.
func ExportFilename(quizName string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(quizName))
	if name == "" {
		name = defaultQuizName
	}
	return name + "_results.csv"
}

// FormatDate renders t in local time, or N/A for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return notAvailable
	}
	return t.Local().Format(DateLayout)
}

func optionalInt(v *int) string {
	if v == nil {
		return notAvailable
	}
	return strconv.Itoa(*v)
}
