package pipeline

import (
	"context"
	"sync"
	"time"

	"videogen/internal/domain"
)

// Stage names one step of a run as shown to polling clients.
type Stage string

const (
	StageValidating Stage = "validating input"
	StagePreparing  Stage = "preparing workspace"
	StageFrames     Stage = "generating frames"
	StageAudio      Stage = "acquiring audio"
	StageAssembling Stage = "assembling video"
	StagePersisting Stage = "saving"
	StageCleaningUp Stage = "cleaning up"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// stageRanges maps each stage to its slice of the overall percentage.
var stageRanges = map[Stage][2]int{
	StageValidating: {0, 0},
	StagePreparing:  {0, 0},
	StageFrames:     {0, 40},
	StageAudio:      {40, 75},
	StageAssembling: {75, 95},
	StagePersisting: {95, 99},
	StageCleaningUp: {99, 99},
	StageComplete:   {100, 100},
}

// Span maps fraction in [0,1] of stage onto the overall percentage.
func (s Stage) Span(fraction float64) int {
	r, ok := stageRanges[s]
	if !ok {
		return 0
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return r[0] + int(float64(r[1]-r[0])*fraction)
}

// Tracker holds the live progress of every request, keyed by request id.
// Terminal states are kept for ttl so late pollers still see the outcome.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*trackedState
	ttl    time.Duration
	now    func() time.Time
}

type trackedState struct {
	state domain.ProgressState
}

func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		states: make(map[string]*trackedState),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Start registers requestID and returns its reporter. Starting an id that is
// already tracked returns a reporter for the existing state unchanged.
func (t *Tracker) Start(requestID string) *Reporter {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.states[requestID]; !ok {
		t.states[requestID] = &trackedState{state: domain.ProgressState{
			RequestID: requestID,
			Stage:     string(StageValidating),
			UpdatedAt: t.now(),
		}}
	}
	return &Reporter{tracker: t, requestID: requestID}
}

// Get returns a copy of the current state.
func (t *Tracker) Get(requestID string) (domain.ProgressState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[requestID]
	if !ok {
		return domain.ProgressState{}, false
	}
	return s.state, true
}

// Len reports how many requests are tracked.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.states)
}

// Sweep drops terminal states older than the ttl and returns how many were
// removed. In-flight requests are never dropped.
func (t *Tracker) Sweep() int {
	cutoff := t.now().Add(-t.ttl)
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, s := range t.states {
		if s.state.Terminal() && s.state.UpdatedAt.Before(cutoff) {
			delete(t.states, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Sweep()
		}
	}
}

func (t *Tracker) update(requestID string, fn func(*domain.ProgressState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[requestID]
	if !ok || s.state.Terminal() {
		return
	}
	fn(&s.state)
	s.state.UpdatedAt = t.now()
}

// Reporter mutates the progress of one request. Percent only moves forward
// and nothing changes once the request reached a terminal state.
type Reporter struct {
	tracker   *Tracker
	requestID string
}

func (r *Reporter) RequestID() string { return r.requestID }

// Enter switches to stage and moves percent to the start of its range.
func (r *Reporter) Enter(stage Stage) {
	r.tracker.update(r.requestID, func(s *domain.ProgressState) {
		s.Stage = string(stage)
		advance(s, stage.Span(0))
	})
}

// Advance reports fraction of stage as done.
func (r *Reporter) Advance(stage Stage, fraction float64) {
	r.tracker.update(r.requestID, func(s *domain.ProgressState) {
		advance(s, stage.Span(fraction))
	})
}

// Complete is the success terminal state.
func (r *Reporter) Complete(videoURL string) {
	r.tracker.update(r.requestID, func(s *domain.ProgressState) {
		s.Stage = string(StageComplete)
		s.Percent = 100
		s.VideoURL = videoURL
		s.ErrorMessage = ""
	})
}

// Fail is the failure terminal state.
func (r *Reporter) Fail(err error) {
	msg := "generation failed"
	if err != nil {
		msg = err.Error()
	}
	r.tracker.update(r.requestID, func(s *domain.ProgressState) {
		s.Stage = string(StageFailed)
		s.Percent = -1
		s.VideoURL = ""
		s.ErrorMessage = msg
	})
}

// advance never lets a running request report 100 before Complete.
func advance(s *domain.ProgressState, percent int) {
	if percent > 99 {
		percent = 99
	}
	if percent > s.Percent {
		s.Percent = percent
	}
}
