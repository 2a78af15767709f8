package quiz

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewQuestionMarksCorrectOptions(t *testing.T) {
	question, err := NewQuestion("2 + 2?", [OptionCount]string{"3", "4", "5", "four"}, []int{1, 3})
	if err != nil {
		t.Fatalf("NewQuestion failed: %v", err)
	}
	if question.Text != "2 + 2?" {
		t.Fatalf("text = %q", question.Text)
	}
	if len(question.Options) != OptionCount {
		t.Fatalf("expected %d options, got %d", OptionCount, len(question.Options))
	}

	want := []bool{false, true, false, true}
	for idx, option := range question.Options {
		if option.IsCorrect != want[idx] {
			t.Fatalf("option %d correct = %t, want %t", idx, option.IsCorrect, want[idx])
		}
	}
}

func TestNewQuestionRejectsIncompleteInput(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		options [OptionCount]string
		correct []int
	}{
		{"blank text", "  ", [OptionCount]string{"a", "b", "c", "d"}, []int{0}},
		{"blank option", "Q?", [OptionCount]string{"a", "", "c", "d"}, []int{0}},
		{"whitespace option", "Q?", [OptionCount]string{"a", "b", " ", "d"}, []int{0}},
		{"no correct option", "Q?", [OptionCount]string{"a", "b", "c", "d"}, nil},
		{"correct index out of range", "Q?", [OptionCount]string{"a", "b", "c", "d"}, []int{4, -1}},
	}

	for _, tc := range cases {
		_, err := NewQuestion(tc.text, tc.options, tc.correct)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("%s: expected *ValidationError, got %v", tc.name, err)
		}
		if validationErr.Message != msgIncompleteQuestion {
			t.Fatalf("%s: message = %q", tc.name, validationErr.Message)
		}
	}
}

func TestDraftValidateOrder(t *testing.T) {
	var draft Draft
	if err := draft.Validate(); err == nil || err.Error() != msgMissingName {
		t.Fatalf("expected missing name, got %v", err)
	}

	draft.Name = "Algebra"
	if err := draft.Validate(); err == nil || err.Error() != msgMissingDueDate {
		t.Fatalf("expected missing due date, got %v", err)
	}

	draft.DueDate = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	if err := draft.Validate(); err == nil || err.Error() != msgNoQuestions {
		t.Fatalf("expected missing questions, got %v", err)
	}

	draft.Questions = []Question{{Text: "Q"}}
	if err := draft.Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}

	draft.Reset()
	if draft.Name != "" || !draft.DueDate.IsZero() || len(draft.Questions) != 0 {
		t.Fatalf("expected empty draft after reset, got %+v", draft)
	}
}

func TestGenerateCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := GenerateCode()
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		if strings.ToUpper(code) != code {
			t.Fatalf("code %q is not upper-case", code)
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Fatalf("expected mostly distinct codes, got %d distinct of 50", len(seen))
	}
}
