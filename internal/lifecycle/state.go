package lifecycle

import "sync"

type State int

const (
	Idle State = iota
	Loading
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Tracker records where a component is in Idle -> Loading -> Success|Failed
// together with the message the user should see.
type Tracker struct {
	mu      sync.Mutex
	state   State
	message string
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Message() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.message
}

// Begin moves to Loading. A Failed component passes through Idle first and
// drops its previous message.
func (t *Tracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Loading
	t.message = ""
}

func (t *Tracker) Succeed(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Success
	t.message = message
}

func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Failed
	t.message = message
}

// Reject records a validation failure. Nothing was in flight, so the state
// returns to Idle with the message attached.
func (t *Tracker) Reject(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = Idle
	t.message = message
}

// Cancel returns a Loading tracker to Idle. Other states are left alone.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Loading {
		t.state = Idle
		t.message = ""
	}
}
