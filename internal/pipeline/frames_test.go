package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videogen/internal/domain"
)

func TestFrameGeneratorWritesEveryFrame(t *testing.T) {
	ws, err := OpenWorkspace(t.TempDir(), "req", nil)
	require.NoError(t, err)
	defer ws.Close()

	images := &fakeImages{}
	var progress []int
	frames, err := NewFrameGenerator(images, 0, nil).Generate(context.Background(), ws, "req", "a calm lake", 5, func(done, total int) {
		assert.Equal(t, 5, total)
		progress = append(progress, done)
	})
	require.NoError(t, err)
	require.Len(t, frames, 5)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)

	seeds := map[int]struct{}{}
	for i, frame := range frames {
		assert.Equal(t, i+1, frame.Index)
		assert.FileExists(t, frame.ImagePath)
		seeds[images.calls[i].Seed] = struct{}{}
	}
	assert.Len(t, seeds, 5, "every frame should sample with its own seed")
	assert.Contains(t, images.calls[0].Prompt, "wide establishing shot")
	assert.Contains(t, images.calls[4].Prompt, "dramatic finale shot")
}

func TestFrameGeneratorFailsFastWithIndex(t *testing.T) {
	ws, err := OpenWorkspace(t.TempDir(), "req", nil)
	require.NoError(t, err)
	defer ws.Close()

	images := &fakeImages{failAt: 3}
	frames, err := NewFrameGenerator(images, 0, nil).Generate(context.Background(), ws, "req", "prompt", 5, nil)
	require.Error(t, err)
	assert.Nil(t, frames)
	assert.Len(t, images.calls, 3, "no calls after the failing frame")
	assert.ErrorIs(t, err, domain.ErrFrameGeneration)

	var frameErr *domain.FrameError
	require.True(t, errors.As(err, &frameErr))
	assert.Equal(t, 3, frameErr.Index)

	entries, err := os.ReadDir(ws.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFrameGeneratorHonoursCancellationBetweenCalls(t *testing.T) {
	ws, err := OpenWorkspace(t.TempDir(), "req", nil)
	require.NoError(t, err)
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.Background())
	images := &fakeImages{}
	gen := NewFrameGenerator(images, time.Hour, nil)
	_, err = gen.Generate(ctx, ws, "req", "prompt", 3, func(done, _ int) {
		if done == 1 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, images.calls, 1)
}
