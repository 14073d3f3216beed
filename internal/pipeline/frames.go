package pipeline

import (
	"context"
	"fmt"
	"time"

	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/providers/image"
)

// FrameGenerator renders the stills of one run, one upstream call at a time.
type FrameGenerator struct {
	images image.Generator
	delay  time.Duration
	logger *infra.Logger
}

func NewFrameGenerator(images image.Generator, delay time.Duration, logger *infra.Logger) *FrameGenerator {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &FrameGenerator{images: images, delay: delay, logger: logger}
}

// Generate produces exactly count frames in ws or fails with a *domain.FrameError
// for the first frame that could not be rendered. progress is called with the
// number of finished frames after each one.
func (g *FrameGenerator) Generate(ctx context.Context, ws *Workspace, requestID, prompt string, count int, progress func(done, total int)) ([]domain.Frame, error) {
	frames := make([]domain.Frame, 0, count)
	for index := 1; index <= count; index++ {
		if index > 1 {
			if err := sleep(ctx, g.delay); err != nil {
				return nil, &domain.FrameError{Index: index, Err: err}
			}
		}

		start := time.Now()
		data, err := g.images.Generate(ctx, image.GenerateRequest{
			Prompt:    image.BuildFramePrompt(prompt, index, count),
			Seed:      image.FrameSeed(requestID, index),
			RequestID: requestID,
		})
		if err == nil && len(data) == 0 {
			err = fmt.Errorf("empty image payload")
		}
		if err != nil {
			return nil, &domain.FrameError{Index: index, Err: err}
		}

		path, err := ws.Write(ctx, fmt.Sprintf("frame_%03d.png", index), data)
		if err != nil {
			return nil, &domain.FrameError{Index: index, Err: err}
		}
		frames = append(frames, domain.Frame{Index: index, ImagePath: path})

		g.logger.Debug().
			Str("request_id", requestID).
			Int("frame", index).
			Int("total", count).
			Dur("took", time.Since(start)).
			Msg("frame generated")
		if progress != nil {
			progress(index, count)
		}
	}
	return frames, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
