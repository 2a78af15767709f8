package dashboard

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"quiz-dashboard/internal/gateway"
	"quiz-dashboard/internal/lifecycle"
	"quiz-dashboard/internal/notifications"
	"quiz-dashboard/internal/quiz"
	"quiz-dashboard/internal/session"
)

const msgHomeLoadFailed = "Failed to load your quizzes or notifications. Please try again later."

type HomeClient interface {
	ListCreatedQuizzes(ctx context.Context, teacherID int64) ([]quiz.Summary, error)
	ListRetestRequests(ctx context.Context, teacherID int64) ([]quiz.RetestRequest, error)
}

// Home is the landing view: the teacher's quizzes and the number of retest
// requests still waiting for a decision.
type Home struct {
	client  HomeClient
	teacher session.User
	scope   *lifecycle.Scope
	slot    lifecycle.Slot
	tracker lifecycle.Tracker

	mu       sync.Mutex
	quizzes  []quiz.Summary
	requests []quiz.RetestRequest
	search   string
}

func NewHome(parent context.Context, client HomeClient, teacher session.User) *Home {
	return &Home{
		client:  client,
		teacher: teacher,
		scope:   lifecycle.NewScope(parent),
	}
}

func (h *Home) Close() {
	h.slot.Cancel()
	h.scope.Close()
	h.tracker.Cancel()
}

// Load fetches quizzes and retest requests in parallel. Either failing fails
// the whole load and cancels the other fetch.
func (h *Home) Load(ctx context.Context) error {
	if !h.teacher.Authenticated() {
		h.tracker.Reject(msgHomeLoadFailed)
		return quiz.ErrNotAuthenticated
	}

	ctx, cancel := h.scope.Bind(ctx)
	defer cancel()
	ticket := h.slot.Start(ctx)
	h.tracker.Begin()

	var (
		quizzes  []quiz.Summary
		requests []quiz.RetestRequest
	)
	group, groupCtx := errgroup.WithContext(ticket.Context())
	group.Go(func() error {
		var err error
		quizzes, err = h.client.ListCreatedQuizzes(groupCtx, h.teacher.ID)
		return err
	})
	group.Go(func() error {
		var err error
		requests, err = h.client.ListRetestRequests(groupCtx, h.teacher.ID)
		return err
	})

	err := group.Wait()
	switch {
	case err == nil:
		if ticket.Commit(func() { h.apply(quizzes, requests) }) {
			return nil
		}
	case !gateway.IsCanceled(err):
		if ticket.Commit(func() { h.tracker.Fail(msgHomeLoadFailed) }) {
			log.Printf("dashboard: load home for teacher %d failed: %v", h.teacher.ID, err)
			return err
		}
	}

	ticket.Abandon(h.tracker.Cancel)
	return fmt.Errorf("load home: %w", context.Canceled)
}

func (h *Home) apply(quizzes []quiz.Summary, requests []quiz.RetestRequest) {
	h.mu.Lock()
	h.quizzes = quizzes
	h.requests = requests
	h.mu.Unlock()
	h.tracker.Succeed("")
}

// Filter sets the search term and returns the quizzes whose name contains
// it, ignoring case.
func (h *Home) Filter(term string) []quiz.Summary {
	h.mu.Lock()
	h.search = term
	h.mu.Unlock()
	return h.Quizzes()
}

// Quizzes returns the quizzes matching the current search term.
func (h *Home) Quizzes() []quiz.Summary {
	h.mu.Lock()
	defer h.mu.Unlock()
	return FilterQuizzes(h.quizzes, h.search)
}

func (h *Home) Requests() []quiz.RetestRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.requests)
}

func (h *Home) PendingCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return notifications.CountPending(h.requests)
}

func (h *Home) State() lifecycle.State {
	return h.tracker.State()
}

func (h *Home) Message() string {
	return h.tracker.Message()
}

func FilterQuizzes(quizzes []quiz.Summary, term string) []quiz.Summary {
	if term == "" {
		return slices.Clone(quizzes)
	}

	fold := cases.Fold()
	needle := fold.String(term)
	filtered := make([]quiz.Summary, 0, len(quizzes))
	for _, item := range quizzes {
		if strings.Contains(fold.String(item.Name), needle) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
