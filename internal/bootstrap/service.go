// Package bootstrap assembles the generation service from configuration. It
// is shared by the API server and the one-shot CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"videogen/internal/adapter/repo"
	"videogen/internal/domain"
	"videogen/internal/encoder"
	"videogen/internal/infra"
	"videogen/internal/infra/credentials"
	"videogen/internal/pipeline"
	"videogen/internal/providers/freesound"
	"videogen/internal/providers/image"
	"videogen/internal/providers/musicgen"
	"videogen/internal/providers/stability"
	"videogen/internal/storage"
)

// Service is the wired pipeline plus the resources it holds open.
type Service struct {
	Orchestrator *pipeline.Orchestrator
	Tracker      *pipeline.Tracker
	Repo         domain.GenerationRepository
	Videos       *storage.FileStore
	Encoder      *encoder.FFmpeg

	closers []func()
}

// Close releases database handles in reverse order of acquisition.
func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// New builds a Service for cfg. Upstream API keys missing from the
// environment are looked up in the credentials table when Postgres is used.
func New(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = infra.NopLogger()
	}
	svc := &Service{}
	ready := false
	defer func() {
		if !ready {
			svc.Close()
		}
	}()

	creds, err := svc.openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	imageKey, err := creds.Resolve(ctx, credentials.ProviderImage, cfg.ImageAPIKey)
	if err != nil {
		return nil, fmt.Errorf("resolve image api key: %w", err)
	}
	if imageKey == "" {
		return nil, stability.ErrMissingAPIKey
	}
	stabilityClient, err := stability.NewClient(stability.Options{
		APIKey:         imageKey,
		BaseURL:        cfg.ImageBaseURL,
		Engine:         cfg.ImageEngine,
		Logger:         logger,
		RequestTimeout: cfg.ImageTimeout,
	})
	if err != nil {
		return nil, err
	}
	frames := pipeline.NewFrameGenerator(image.NewStabilityGenerator(stabilityClient), cfg.FrameDelay, logger)

	audio, err := newAudioAcquirer(ctx, cfg, creds, logger)
	if err != nil {
		return nil, err
	}

	svc.Encoder = &encoder.FFmpeg{
		Path:      cfg.FFmpegPath,
		ProbePath: cfg.FFprobePath,
		Timeout:   cfg.EncodeTimeout,
		Logger:    logger,
	}
	svc.Videos, err = storage.NewFileStore(cfg.VideosDir, cfg.VideoBaseURL)
	if err != nil {
		return nil, err
	}
	svc.Tracker = pipeline.NewTracker(cfg.ProgressTTL)

	svc.Orchestrator, err = pipeline.NewOrchestrator(pipeline.Options{
		Frames:    frames,
		Audio:     audio,
		Assembler: pipeline.NewVideoAssembler(svc.Encoder, logger),
		Videos:    svc.Videos,
		Repo:      svc.Repo,
		Tracker:   svc.Tracker,
		TempDir:   cfg.TempDir,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	ready = true
	return svc, nil
}

// openStore selects the generation repository. The credentials store is only
// available with Postgres and is nil otherwise.
func (s *Service) openStore(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*credentials.Store, error) {
	switch cfg.StoreDriver {
	case infra.StorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		runner := infra.NewSQLRunner(pool, *logger)
		generations := repo.NewGenerationRepository(runner)
		if err := generations.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure generations schema: %w", err)
		}
		creds := credentials.NewStore(runner)
		if err := creds.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure credentials schema: %w", err)
		}
		s.Repo = generations
		return creds, nil
	case infra.StoreMongo:
		client, db, err := infra.NewMongoDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })
		generations := repo.NewGenerationMongoRepository(db)
		if err := generations.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		s.Repo = generations
		return nil, nil
	default:
		s.Repo = repo.NewGenerationMemoryRepository()
		return nil, nil
	}
}

func newAudioAcquirer(ctx context.Context, cfg *infra.Config, creds *credentials.Store, logger *infra.Logger) (pipeline.AudioAcquirer, error) {
	switch cfg.AudioStrategy {
	case infra.AudioStrategyNone:
		logger.Warn().Msg("AUDIO_STRATEGY=none: videos are rendered without sound")
		return nil, nil
	case infra.AudioStrategyGenerate:
		client, err := musicgen.NewClient(musicgen.Options{
			BaseURL:        cfg.MusicGenURL,
			Logger:         logger,
			RequestTimeout: cfg.MusicGenTimeout,
		})
		if err != nil {
			return nil, err
		}
		if health, err := client.Health(ctx); err != nil {
			logger.Warn().Err(err).Msg("music generation service not reachable yet")
		} else if !health.ModelLoaded {
			logger.Warn().Str("model", health.Model).Msg("music generation model not loaded yet")
		} else {
			logger.Info().Str("model", health.Model).Str("device", health.Device).Msg("music generation service ready")
		}
		return pipeline.NewGenerateStrategy(client, logger), nil
	default:
		key, err := creds.Resolve(ctx, credentials.ProviderFreesound, cfg.FreesoundAPIKey)
		if err != nil {
			return nil, fmt.Errorf("resolve freesound api key: %w", err)
		}
		if key == "" {
			return nil, freesound.ErrMissingAPIKey
		}
		library := freesound.NewClient(freesound.Options{
			APIKey:         key,
			BaseURL:        cfg.FreesoundBaseURL,
			Logger:         logger,
			RequestTimeout: cfg.SearchTimeout,
		})
		return pipeline.NewSearchStrategy(library, logger), nil
	}
}
