package results

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"quiz-dashboard/internal/gateway"
	"quiz-dashboard/internal/lifecycle"
	"quiz-dashboard/internal/quiz"
)

const (
	defaultQuizName = "Quiz Results"
	msgMissingCode  = "Please enter a quiz code"
	msgLoadFailed   = "An error occurred while fetching results"
)

type AttemptsFetcher interface {
	ListQuizAttempts(ctx context.Context, code string) ([]quiz.Attempt, error)
}

// Aggregator holds the attempts of one quiz and the user's current view of
// them. Re-sorting and re-filtering never re-fetch.
type Aggregator struct {
	client AttemptsFetcher
	scope  *lifecycle.Scope
	slot   lifecycle.Slot

	tracker lifecycle.Tracker

	mu       sync.Mutex
	code     string
	quizName string
	all      []quiz.Attempt
	view     []quiz.Attempt
	filter   string
	sort     SortState
	sorted   bool
}

func NewAggregator(parent context.Context, client AttemptsFetcher) *Aggregator {
	return &Aggregator{
		client: client,
		scope:  lifecycle.NewScope(parent),
		sort:   DefaultSortState,
	}
}

// Close cancels any outstanding fetch. Its response, if it still arrives, is
// dropped.
func (a *Aggregator) Close() {
	a.slot.Cancel()
	a.scope.Close()
	a.tracker.Cancel()
}

// Load fetches every attempt for code and replaces the local list. Starting a
// load cancels the previous one; only the newest load may publish.
func (a *Aggregator) Load(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		a.tracker.Reject(msgMissingCode)
		return &quiz.ValidationError{Message: msgMissingCode}
	}

	ctx, cancel := a.scope.Bind(ctx)
	defer cancel()
	ticket := a.slot.Start(ctx)

	a.mu.Lock()
	a.code = code
	a.quizName = ""
	a.all = nil
	a.view = nil
	a.mu.Unlock()
	a.tracker.Begin()

	attempts, err := a.client.ListQuizAttempts(ticket.Context(), code)
	switch {
	case err == nil:
		if ticket.Commit(func() { a.apply(code, attempts) }) {
			return nil
		}
	case !gateway.IsCanceled(err):
		message := gateway.Message(err, msgLoadFailed)
		if ticket.Commit(func() { a.tracker.Fail(message) }) {
			log.Printf("results: fetch attempts for %s failed: %v", code, err)
			return err
		}
	}

	ticket.Abandon(a.tracker.Cancel)
	return fmt.Errorf("load %s: %w", code, context.Canceled)
}

func (a *Aggregator) apply(code string, attempts []quiz.Attempt) {
	a.mu.Lock()
	a.code = code
	a.all = attempts
	a.quizName = defaultQuizName
	if len(attempts) > 0 && strings.TrimSpace(attempts[0].QuizName) != "" {
		a.quizName = attempts[0].QuizName
	}
	a.refreshLocked()
	a.mu.Unlock()

	a.tracker.Succeed("")
}

// refreshLocked rebuilds the view from the loaded list. The active sort is
// re-applied only once the user has picked one.
func (a *Aggregator) refreshLocked() {
	a.view = FilterAttempts(a.all, a.filter)
	if a.sorted {
		a.view = SortAttempts(a.view, a.sort)
	}
}

// Sort applies the next sort state for key to the current view and returns
// that state.
func (a *Aggregator) Sort(key SortKey) SortState {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sort = a.sort.Next(key)
	a.sorted = true
	a.view = SortAttempts(a.view, a.sort)
	return a.sort
}

// Filter narrows the view to usernames containing term.
func (a *Aggregator) Filter(term string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.filter = term
	a.refreshLocked()
}

func (a *Aggregator) SortState() SortState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sort
}

// Attempts returns a copy of the current view.
func (a *Aggregator) Attempts() []quiz.Attempt {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.view)
}

func (a *Aggregator) Code() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.code
}

func (a *Aggregator) QuizName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quizName
}

func (a *Aggregator) State() lifecycle.State {
	return a.tracker.State()
}

func (a *Aggregator) Message() string {
	return a.tracker.Message()
}

func (a *Aggregator) Statistics() Statistics {
	return DeriveStatistics(a.Attempts())
}

func (a *Aggregator) ChartSeries() ChartSeries {
	return ProjectChartSeries(a.Attempts())
}

// WriteCSV exports the current view in display order.
func (a *Aggregator) WriteCSV(w io.Writer) error {
	a.mu.Lock()
	view := slices.Clone(a.view)
	name := a.quizName
	a.mu.Unlock()

	return WriteCSV(w, view, name)
}

// ExportFile writes the current view to dir and returns the file path.
func (a *Aggregator) ExportFile(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	path := filepath.Join(dir, ExportFilename(a.QuizName()))

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := a.WriteCSV(file); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return path, nil
}
