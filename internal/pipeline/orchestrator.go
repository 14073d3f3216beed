package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

// VideoStore publishes finished videos.
type VideoStore interface {
	Import(ctx context.Context, key, srcPath string) (string, error)
	URL(key string) string
}

// Options wires an Orchestrator. Audio may be nil for silent videos.
type Options struct {
	Frames    *FrameGenerator
	Audio     AudioAcquirer
	Assembler *VideoAssembler
	Videos    VideoStore
	Repo      domain.GenerationRepository
	Tracker   *Tracker
	TempDir   string
	Logger    *infra.Logger
}

// Orchestrator runs one request through validation, frames, audio,
// assembly and persistence, keeping its ProgressState current.
type Orchestrator struct {
	frames    *FrameGenerator
	audio     AudioAcquirer
	assembler *VideoAssembler
	videos    VideoStore
	repo      domain.GenerationRepository
	tracker   *Tracker
	tempDir   string
	logger    *infra.Logger
	now       func() time.Time
}

func NewOrchestrator(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Frames == nil:
		return nil, errors.New("pipeline: frame generator is required")
	case opts.Assembler == nil:
		return nil, errors.New("pipeline: assembler is required")
	case opts.Videos == nil:
		return nil, errors.New("pipeline: video store is required")
	case opts.Repo == nil:
		return nil, errors.New("pipeline: repository is required")
	case opts.Tracker == nil:
		return nil, errors.New("pipeline: tracker is required")
	case strings.TrimSpace(opts.TempDir) == "":
		return nil, errors.New("pipeline: temp dir is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Orchestrator{
		frames:    opts.Frames,
		audio:     opts.Audio,
		assembler: opts.Assembler,
		videos:    opts.Videos,
		repo:      opts.Repo,
		tracker:   opts.Tracker,
		tempDir:   opts.TempDir,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Tracker exposes the progress map read by pollers.
func (o *Orchestrator) Tracker() *Tracker { return o.tracker }

// HasAudio reports whether runs produce an audio track.
func (o *Orchestrator) HasAudio() bool { return o.audio != nil }

// Run executes one request to a terminal state. A failing stage leaves the
// request Failed and returns its error. A repository failure after the video
// was published still completes the request; the wrapped ErrPersistence is
// returned alongside the record.
func (o *Orchestrator) Run(ctx context.Context, requestID string, req domain.GenerationRequest) (*domain.GenerationRecord, error) {
	rep := o.tracker.Start(requestID)
	log := o.logger.With().Str("request_id", requestID).Logger()
	started := time.Now()

	fail := func(stage Stage, err error) (*domain.GenerationRecord, error) {
		rep.Fail(err)
		log.Error().Err(err).Str("stage", string(stage)).Dur("elapsed", time.Since(started)).Msg("generation failed")
		return nil, err
	}

	rep.Enter(StageValidating)
	if err := req.Validate(); err != nil {
		return fail(StageValidating, err)
	}
	req.Prompt = strings.TrimSpace(req.Prompt)

	rep.Enter(StagePreparing)
	ws, err := OpenWorkspace(o.tempDir, requestID, &log)
	if err != nil {
		return fail(StagePreparing, fmt.Errorf("%w: %w", domain.ErrWorkspace, err))
	}
	defer ws.Close()

	rep.Enter(StageFrames)
	stageStart := time.Now()
	count := FrameCount(req.DurationSeconds)
	frames, err := o.frames.Generate(ctx, ws, requestID, req.Prompt, count, func(done, total int) {
		rep.Advance(StageFrames, float64(done)/float64(total))
	})
	if err != nil {
		return fail(StageFrames, err)
	}
	log.Info().Str("stage", string(StageFrames)).Int("frames", len(frames)).Dur("took", time.Since(stageStart)).Msg("stage done")

	rep.Enter(StageAudio)
	var audio *domain.AudioAsset
	if o.audio != nil {
		stageStart = time.Now()
		audio, err = o.audio.Acquire(ctx, ws, req)
		if err != nil {
			return fail(StageAudio, err)
		}
		log.Info().Str("stage", string(StageAudio)).Str("source", string(audio.Source)).Dur("took", time.Since(stageStart)).Msg("stage done")
	}
	rep.Advance(StageAudio, 1)

	rep.Enter(StageAssembling)
	stageStart = time.Now()
	output := ws.Path("output.mp4")
	err = o.assembler.Assemble(ctx, AssembleInput{
		Frames:          frames,
		Audio:           audio,
		DurationSeconds: req.DurationSeconds,
		Output:          output,
	}, func(fraction float64) {
		rep.Advance(StageAssembling, fraction)
	})
	if err != nil {
		return fail(StageAssembling, err)
	}
	key := requestID + ".mp4"
	if _, err := o.videos.Import(ctx, key, output); err != nil {
		return fail(StageAssembling, fmt.Errorf("%w: publish video: %w", domain.ErrAssembly, err))
	}
	log.Info().Str("stage", string(StageAssembling)).Dur("took", time.Since(stageStart)).Msg("stage done")

	rep.Enter(StagePersisting)
	record := &domain.GenerationRecord{
		ID:              uuid.NewString(),
		Prompt:          req.Prompt,
		VideoURL:        o.videos.URL(key),
		DurationSeconds: req.DurationSeconds,
		CreatedAt:       o.now().UTC(),
		HasAudio:        audio != nil,
	}
	if audio != nil {
		record.AudioSource = string(audio.Source)
	}
	var persistErr error
	if err := o.repo.Save(ctx, record); err != nil {
		persistErr = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		log.Error().Err(err).Msg("generation record not saved")
	}

	rep.Enter(StageCleaningUp)
	ws.Close()

	rep.Complete(record.VideoURL)
	log.Info().Str("video_url", record.VideoURL).Dur("elapsed", time.Since(started)).Msg("generation complete")
	return record, persistErr
}
