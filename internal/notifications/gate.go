// Package notifications lists a teacher's retest requests and approves or
// declines them. Every decision re-sends the teacher's password; it is never
// kept between calls.
package notifications

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"quiz-dashboard/internal/gateway"
	"quiz-dashboard/internal/lifecycle"
	"quiz-dashboard/internal/quiz"
	"quiz-dashboard/internal/session"
)

const (
	msgMissingPassword = "Please enter your password to approve or decline a request."
	msgUpdateFailed    = "Failed to update request. Check your password."
	msgLoadFailed      = "Failed to load notifications. Please try again later."
)

type RetestClient interface {
	ListRetestRequests(ctx context.Context, teacherID int64) ([]quiz.RetestRequest, error)
	UpdateRetestRequest(ctx context.Context, requestID int64, status, teacherPassword string) error
}

type Gate struct {
	client  RetestClient
	teacher session.User
	scope   *lifecycle.Scope
	slot    lifecycle.Slot

	// loading covers Load; action covers approve/decline.
	loading lifecycle.Tracker
	action  lifecycle.Tracker

	mu       sync.Mutex
	requests []quiz.RetestRequest
}

func New(parent context.Context, client RetestClient, teacher session.User) *Gate {
	return &Gate{
		client:  client,
		teacher: teacher,
		scope:   lifecycle.NewScope(parent),
	}
}

func (g *Gate) Close() {
	g.slot.Cancel()
	g.scope.Close()
	g.loading.Cancel()
	g.action.Cancel()
}

// Load replaces the local list with the server's. A newer Load cancels an
// older one.
func (g *Gate) Load(ctx context.Context) error {
	if !g.teacher.Authenticated() {
		g.loading.Reject(msgLoadFailed)
		return quiz.ErrNotAuthenticated
	}

	ctx, cancel := g.scope.Bind(ctx)
	defer cancel()
	ticket := g.slot.Start(ctx)
	g.loading.Begin()

	requests, err := g.client.ListRetestRequests(ticket.Context(), g.teacher.ID)
	switch {
	case err == nil:
		if ticket.Commit(func() { g.replace(requests) }) {
			return nil
		}
	case !gateway.IsCanceled(err):
		if ticket.Commit(func() { g.loading.Fail(msgLoadFailed) }) {
			log.Printf("notifications: load retest requests failed: %v", err)
			return err
		}
	}

	ticket.Abandon(g.loading.Cancel)
	return fmt.Errorf("load retest requests: %w", context.Canceled)
}

func (g *Gate) replace(requests []quiz.RetestRequest) {
	g.mu.Lock()
	g.requests = requests
	g.mu.Unlock()
	g.loading.Succeed("")
}

// SetRequests seeds the list with requests fetched elsewhere, such as the
// home view's combined load.
func (g *Gate) SetRequests(requests []quiz.RetestRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = slices.Clone(requests)
}

// Requests returns every known request, decided ones included.
func (g *Gate) Requests() []quiz.RetestRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.requests)
}

func (g *Gate) Pending() []quiz.RetestRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return pendingOf(g.requests)
}

func (g *Gate) PendingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return CountPending(g.requests)
}

func (g *Gate) Approve(ctx context.Context, requestID int64, password string) error {
	return g.decide(ctx, requestID, quiz.StatusApproved, password)
}

func (g *Gate) Decline(ctx context.Context, requestID int64, password string) error {
	return g.decide(ctx, requestID, quiz.StatusDeclined, password)
}

// LoadState describes the last Load.
func (g *Gate) LoadState() lifecycle.State {
	return g.loading.State()
}

func (g *Gate) LoadMessage() string {
	return g.loading.Message()
}

// State describes the last approve or decline.
func (g *Gate) State() lifecycle.State {
	return g.action.State()
}

func (g *Gate) Message() string {
	return g.action.Message()
}

func (g *Gate) decide(ctx context.Context, requestID int64, status, password string) error {
	if strings.TrimSpace(password) == "" {
		g.action.Reject(msgMissingPassword)
		return &quiz.ValidationError{Message: msgMissingPassword}
	}

	ctx, cancel := g.scope.Bind(ctx)
	defer cancel()
	g.action.Begin()

	err := g.client.UpdateRetestRequest(ctx, requestID, status, password)
	if err != nil {
		if gateway.IsCanceled(err) {
			g.action.Cancel()
			return err
		}
		log.Printf("notifications: %s request %d failed: %v", status, requestID, err)
		g.action.Fail(gateway.Message(err, msgUpdateFailed))
		return err
	}

	g.mu.Lock()
	for i := range g.requests {
		if g.requests[i].RequestID == requestID {
			g.requests[i].Status = status
		}
	}
	g.mu.Unlock()

	g.action.Succeed(fmt.Sprintf("Retest request %s successfully!", status))
	return nil
}

func pendingOf(requests []quiz.RetestRequest) []quiz.RetestRequest {
	pending := make([]quiz.RetestRequest, 0, len(requests))
	for _, request := range requests {
		if request.IsPending() {
			pending = append(pending, request)
		}
	}
	return pending
}

// CountPending is the badge count for requests.
func CountPending(requests []quiz.RetestRequest) int {
	count := 0
	for _, request := range requests {
		if request.IsPending() {
			count++
		}
	}
	return count
}
