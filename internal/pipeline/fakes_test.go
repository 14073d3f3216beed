package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"videogen/internal/domain"
	"videogen/internal/encoder"
	"videogen/internal/providers/freesound"
	"videogen/internal/providers/image"
)

type fakeImages struct {
	mu     sync.Mutex
	calls  []image.GenerateRequest
	failAt int
	onCall func()
}

func (f *fakeImages) Generate(_ context.Context, req image.GenerateRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.onCall != nil {
		f.onCall()
	}
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return nil, errors.New("upstream returned 500")
	}
	return []byte(fmt.Sprintf("png-%d", len(f.calls))), nil
}

// fakeSounds answers searches from a table keyed by query.
type fakeSounds struct {
	mu      sync.Mutex
	hits    map[string]freesound.Sound
	failing map[string]error
	queries []string
	windows [][2]int
}

func (f *fakeSounds) Search(_ context.Context, req freesound.SearchRequest) ([]freesound.Sound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, req.Query)
	f.windows = append(f.windows, [2]int{req.MinDuration, req.MaxDuration})
	if err := f.failing[req.Query]; err != nil {
		return nil, err
	}
	if hit, ok := f.hits[req.Query]; ok {
		return []freesound.Sound{hit}, nil
	}
	return nil, nil
}

func (f *fakeSounds) Download(_ context.Context, url string) ([]byte, error) {
	return []byte("mp3:" + url), nil
}

type fakeMusic struct {
	prompt  string
	seconds int
	err     error
}

func (f *fakeMusic) Generate(_ context.Context, prompt string, seconds int) ([]byte, error) {
	f.prompt, f.seconds = prompt, seconds
	if f.err != nil {
		return nil, f.err
	}
	return []byte("RIFF"), nil
}

// fakeEncoder writes payload to the job output and replays progress.
type fakeEncoder struct {
	mu      sync.Mutex
	jobs    []encoder.Job
	payload []byte
	err     error
	steps   []float64
	onStep  func()
}

func (f *fakeEncoder) Encode(_ context.Context, job encoder.Job, progress encoder.ProgressFunc) error {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()
	for _, step := range f.steps {
		if progress != nil {
			progress(step)
		}
		if f.onStep != nil {
			f.onStep()
		}
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(job.Output, f.payload, 0o644)
}

type fakeRepo struct {
	mu      sync.Mutex
	records []domain.GenerationRecord
	err     error
}

func (r *fakeRepo) Save(_ context.Context, record *domain.GenerationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeRepo) ListRecent(_ context.Context, limit int) ([]domain.GenerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.GenerationRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
