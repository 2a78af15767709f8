package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"quiz-dashboard/internal/quiz"
)

const dueLayout = "2006-01-02 15:04"

// splitCommand returns the lower-cased first word of line and the trimmed
// remainder.
func splitCommand(line string) (string, string) {
	command, rest := splitArgument(line)
	return strings.ToLower(command), rest
}

func splitArgument(value string) (string, string) {
	head, tail, _ := strings.Cut(strings.TrimSpace(value), " ")
	return head, strings.TrimSpace(tail)
}

func promptLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// parseOptionNumber maps a 1-based option number onto its index.
func parseOptionNumber(value string) (int, error) {
	number, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || number < 1 || number > quiz.OptionCount {
		return 0, fmt.Errorf("option must be 1-%d", quiz.OptionCount)
	}
	return number - 1, nil
}

func parseRequestID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("request id must be a positive integer")
	}
	return id, nil
}

func formatOptional(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}

func formatDue(due time.Time) string {
	if due.IsZero() {
		return "not set"
	}
	return due.Format(dueLayout)
}
