package builder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"quiz-dashboard/internal/gateway"
	"quiz-dashboard/internal/lifecycle"
	"quiz-dashboard/internal/quiz"
	"quiz-dashboard/internal/session"
)

const (
	msgNotLoggedIn   = "You must be logged in to create a quiz."
	msgSubmitFailed  = "An error occurred while creating the quiz."
	msgSubmitPending = "A quiz submission is already in progress."
)

// QuizCreator is the part of the gateway the builder talks to.
type QuizCreator interface {
	CreateQuiz(ctx context.Context, input gateway.NewQuiz) (string, error)
}

// Form holds the inputs of the question currently being written.
type Form struct {
	Text    string
	Options [quiz.OptionCount]string
	Correct []int
}

func (f *Form) ToggleCorrect(idx int) {
	for i, marked := range f.Correct {
		if marked == idx {
			f.Correct = append(f.Correct[:i], f.Correct[i+1:]...)
			return
		}
	}
	f.Correct = append(f.Correct, idx)
}

func (f *Form) clear() {
	*f = Form{}
}

// Builder accumulates a draft quiz in memory and submits it in one request.
type Builder struct {
	client QuizCreator
	author session.User
	scope  *lifecycle.Scope

	mu       sync.Mutex
	draft    quiz.Draft
	form     Form
	lastCode string
	tracker  lifecycle.Tracker
}

func New(parent context.Context, client QuizCreator, author session.User) *Builder {
	return &Builder{
		client: client,
		author: author,
		scope:  lifecycle.NewScope(parent),
	}
}

// Close cancels a submission still in flight. The draft is kept.
func (b *Builder) Close() {
	b.scope.Close()
	b.tracker.Cancel()
}

func (b *Builder) SetName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft.Name = name
}

func (b *Builder) SetDueDate(due time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft.DueDate = due
}

// ParseDueDate accepts the minute-precision local timestamp used by the API.
func ParseDueDate(value string) (time.Time, error) {
	due, err := time.ParseInLocation(quiz.DueDateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("due date must look like %s", quiz.DueDateLayout)
	}
	return due, nil
}

// EditForm runs fn against the question form under the builder lock.
func (b *Builder) EditForm(fn func(form *Form)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.form)
}

func (b *Builder) Form() Form {
	b.mu.Lock()
	defer b.mu.Unlock()
	form := b.form
	form.Correct = append([]int(nil), b.form.Correct...)
	return form
}

// AddQuestion validates the form and appends it to the draft as a new
// question, then clears the form. On a validation error nothing changes.
func (b *Builder) AddQuestion() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	question, err := quiz.NewQuestion(b.form.Text, b.form.Options, b.form.Correct)
	if err != nil {
		b.tracker.Reject(err.Error())
		return err
	}

	b.draft.Questions = append(b.draft.Questions, question)
	b.form.clear()
	return nil
}

// Draft returns a copy of the draft.
func (b *Builder) Draft() quiz.Draft {
	b.mu.Lock()
	defer b.mu.Unlock()
	draft := b.draft
	draft.Questions = append([]quiz.Question(nil), b.draft.Questions...)
	return draft
}

// LastCode is the code of the most recently created quiz.
func (b *Builder) LastCode() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastCode
}

func (b *Builder) State() lifecycle.State {
	return b.tracker.State()
}

func (b *Builder) Message() string {
	return b.tracker.Message()
}

// Submit sends the draft as a single create-quiz request. On success the
// draft and form are reset and the quiz code is returned. On failure the
// draft is left exactly as it was.
func (b *Builder) Submit(ctx context.Context) (string, error) {
	b.mu.Lock()
	if b.tracker.State() == lifecycle.Loading {
		b.mu.Unlock()
		return "", &quiz.ValidationError{Message: msgSubmitPending}
	}
	if err := b.draft.Validate(); err != nil {
		b.tracker.Reject(err.Error())
		b.mu.Unlock()
		return "", err
	}
	if !b.author.Authenticated() {
		err := &quiz.ValidationError{Message: msgNotLoggedIn}
		b.tracker.Reject(err.Error())
		b.mu.Unlock()
		return "", err
	}

	input := gateway.NewQuiz{
		Name:      b.draft.Name,
		Code:      quiz.GenerateCode(),
		CreatedBy: b.author.ID,
		Questions: append([]quiz.Question(nil), b.draft.Questions...),
		DueDate:   b.draft.DueDate,
	}
	b.tracker.Begin()
	b.mu.Unlock()

	ctx, cancel := b.scope.Bind(ctx)
	defer cancel()

	code, err := b.client.CreateQuiz(ctx, input)
	if err != nil {
		if gateway.IsCanceled(err) {
			b.tracker.Cancel()
			return "", err
		}
		log.Printf("builder: create quiz %q failed: %v", input.Name, err)
		b.tracker.Fail(gateway.Message(err, msgSubmitFailed))
		return "", err
	}

	b.mu.Lock()
	b.draft.Reset()
	b.form.clear()
	b.lastCode = code
	b.mu.Unlock()

	b.tracker.Succeed(fmt.Sprintf("Quiz created successfully! Quiz Code: %s", code))
	return code, nil
}
