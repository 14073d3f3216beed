package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/pipeline"
)

// Runner executes one generation to a terminal state.
type Runner interface {
	Run(ctx context.Context, requestID string, req domain.GenerationRequest) (*domain.GenerationRecord, error)
}

type App struct {
	Runner        Runner
	Tracker       *pipeline.Tracker
	Repo          domain.GenerationRepository
	Logger        *infra.Logger
	Validate      *validator.Validate
	StoreDriver   string
	AudioStrategy string

	// BaseContext parents background runs so shutdown cancels them.
	BaseContext context.Context

	inflight sync.WaitGroup
}

func NewApp(runner Runner, tracker *pipeline.Tracker, repo domain.GenerationRepository, logger *infra.Logger) *App {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &App{
		Runner:      runner,
		Tracker:     tracker,
		Repo:        repo,
		Logger:      logger,
		Validate:    validator.New(validator.WithRequiredStructEnabled()),
		BaseContext: context.Background(),
	}
}

// Wait blocks until background runs finish or ctx is done.
func (a *App) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
