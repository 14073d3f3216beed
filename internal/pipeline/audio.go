package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/samber/lo"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/providers/freesound"
	"videogen/internal/providers/musicgen"
)

// AudioAcquirer obtains the single audio track of a run.
type AudioAcquirer interface {
	Acquire(ctx context.Context, ws *Workspace, req domain.GenerationRequest) (*domain.AudioAsset, error)
}

// SoundLibrary is the subset of the sound-library client the search strategy
// needs.
type SoundLibrary interface {
	Search(ctx context.Context, req freesound.SearchRequest) ([]freesound.Sound, error)
	Download(ctx context.Context, previewURL string) ([]byte, error)
}

// MusicGenerator produces a track from a prompt.
type MusicGenerator interface {
	Generate(ctx context.Context, prompt string, seconds int) ([]byte, error)
}

// DefaultQueries is the last search tier, tried in order.
var DefaultQueries = []string{
	"ambient music",
	"background music",
	"soundtrack",
	"atmospheric music",
	"instrumental",
}

const keywordQuerySuffix = " music background"

// searchTier is one ordered step of the cascade. queries is evaluated only
// when the tier is reached.
type searchTier struct {
	source  domain.AudioSource
	queries func() []string
}

// SearchStrategy walks direct, keyword and default queries against the sound
// library and keeps the first hit.
type SearchStrategy struct {
	library SoundLibrary
	logger  *infra.Logger
}

func NewSearchStrategy(library SoundLibrary, logger *infra.Logger) *SearchStrategy {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &SearchStrategy{library: library, logger: logger}
}

// DurationWindow is the accepted clip length, in seconds, for a video of the
// given length.
func DurationWindow(durationSeconds int) (int, int) {
	return max(1, durationSeconds-5), durationSeconds + 10
}

func (s *SearchStrategy) Acquire(ctx context.Context, ws *Workspace, req domain.GenerationRequest) (*domain.AudioAsset, error) {
	prompt := strings.TrimSpace(req.Prompt)
	tiers := []searchTier{
		{domain.AudioSourceDirectSearch, func() []string { return []string{prompt} }},
		{domain.AudioSourceKeywordSearch, func() []string {
			return lo.Map(ExtractKeywords(prompt), func(kw string, _ int) string { return kw + keywordQuerySuffix })
		}},
		{domain.AudioSourceDefaultSearch, func() []string { return DefaultQueries }},
	}

	minDur, maxDur := DurationWindow(req.DurationSeconds)
	var lastErr error
	attempts := 0
	for _, tier := range tiers {
		for _, query := range tier.queries() {
			attempts++
			sound, found, err := s.lookup(ctx, query, minDur, maxDur)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %w", domain.ErrAudioAcquisition, ctx.Err())
				}
				lastErr = err
				s.logger.Warn().Err(err).Str("tier", string(tier.source)).Str("query", query).Msg("audio search failed, trying next query")
				continue
			}
			if !found {
				continue
			}
			s.logger.Info().
				Str("tier", string(tier.source)).
				Str("query", query).
				Str("sound", sound.Name).
				Int("attempts", attempts).
				Msg("audio search matched")
			return s.download(ctx, ws, sound, tier.source)
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: no sound found after %d queries: %w", domain.ErrAudioAcquisition, attempts, lastErr)
	}
	return nil, fmt.Errorf("%w: no sound found after %d queries", domain.ErrAudioAcquisition, attempts)
}

// lookup runs one query. found is false when the library had no match.
func (s *SearchStrategy) lookup(ctx context.Context, query string, minDur, maxDur int) (freesound.Sound, bool, error) {
	if strings.TrimSpace(query) == "" {
		return freesound.Sound{}, false, nil
	}
	sounds, err := s.library.Search(ctx, freesound.SearchRequest{
		Query:       query,
		MinDuration: minDur,
		MaxDuration: maxDur,
		Sort:        freesound.SortRatingDesc,
		PageSize:    1,
	})
	if err != nil {
		return freesound.Sound{}, false, err
	}
	if len(sounds) == 0 {
		return freesound.Sound{}, false, nil
	}
	return sounds[0], true, nil
}

func (s *SearchStrategy) download(ctx context.Context, ws *Workspace, sound freesound.Sound, source domain.AudioSource) (*domain.AudioAsset, error) {
	data, err := s.library.Download(ctx, sound.PreviewURL)
	if err != nil {
		return nil, fmt.Errorf("%w: download %q: %w", domain.ErrAudioAcquisition, sound.Name, err)
	}
	ext := path.Ext(sound.PreviewURL)
	if ext == "" || len(ext) > 5 {
		ext = ".mp3"
	}
	p, err := ws.Write(ctx, "audio"+ext, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAudioAcquisition, err)
	}
	return &domain.AudioAsset{Path: p, Source: source, Label: sound.Name}, nil
}

// GenerateStrategy asks a music model for a track. There is no fallback: a
// failed call fails the stage.
type GenerateStrategy struct {
	music  MusicGenerator
	logger *infra.Logger
}

func NewGenerateStrategy(music MusicGenerator, logger *infra.Logger) *GenerateStrategy {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &GenerateStrategy{music: music, logger: logger}
}

func (g *GenerateStrategy) Acquire(ctx context.Context, ws *Workspace, req domain.GenerationRequest) (*domain.AudioAsset, error) {
	start := time.Now()
	seconds := musicgen.ClampDuration(req.DurationSeconds)
	data, err := g.music.Generate(ctx, req.Prompt, seconds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAudioAcquisition, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: music service returned no audio", domain.ErrAudioAcquisition)
	}
	p, err := ws.Write(ctx, "audio.wav", data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAudioAcquisition, err)
	}
	g.logger.Info().Int("seconds", seconds).Dur("took", time.Since(start)).Msg("music generated")
	return &domain.AudioAsset{
		Path:   p,
		Source: domain.AudioSourceGenerated,
		Label:  musicgen.ShapePrompt(req.Prompt),
	}, nil
}

var (
	_ AudioAcquirer = (*SearchStrategy)(nil)
	_ AudioAcquirer = (*GenerateStrategy)(nil)
)
