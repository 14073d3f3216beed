package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videogen/internal/domain"
)

func testFrames(n int) []domain.Frame {
	frames := make([]domain.Frame, n)
	for i := range frames {
		frames[i] = domain.Frame{Index: i + 1, ImagePath: fmt.Sprintf("/tmp/req/frame_%03d.png", i+1)}
	}
	return frames
}

func TestSliceSecondsCoversDuration(t *testing.T) {
	for d := 5; d <= 30; d++ {
		n := FrameCount(d)
		slice := SliceSeconds(d, n)
		total := slice * n
		assert.GreaterOrEqual(t, total, d, "duration %d", d)
		assert.Less(t, total-d, slice+1, "duration %d overshoots by more than one slice", d)
	}
	assert.Equal(t, 2, SliceSeconds(10, 5))
	assert.Equal(t, 2, SliceSeconds(7, 4))
	assert.Equal(t, 1, SliceSeconds(0, 0))
}

func TestFilterGraph(t *testing.T) {
	graph := FilterGraph(2, true)
	chains := strings.Split(graph, ";")
	require.Len(t, chains, 4)
	assert.True(t, strings.HasPrefix(chains[0], "[0:v]scale=1024:1024:force_original_aspect_ratio=decrease,pad=1024:1024"))
	assert.Contains(t, chains[1], "format=yuv420p")
	assert.Equal(t, "[v0][v1]concat=n=2:v=1:a=0[outv]", chains[2])
	assert.Equal(t, "[2:a]aresample=44100,aformat=sample_fmts=fltp:channel_layouts=stereo,apad[outa]", chains[3])

	silent := FilterGraph(3, false)
	assert.NotContains(t, silent, "[outa]")
	assert.Contains(t, silent, "concat=n=3")
}

func TestEncodeArgs(t *testing.T) {
	args := EncodeArgs(AssembleInput{
		Frames:          testFrames(5),
		Audio:           &domain.AudioAsset{Path: "/tmp/req/audio.mp3"},
		DurationSeconds: 10,
		Output:          "/tmp/req/output.mp4",
	})
	joined := strings.Join(args, " ")
	assert.Equal(t, 5, strings.Count(joined, "-loop 1 -t 2 -i"))
	assert.Contains(t, joined, "-i /tmp/req/audio.mp3 -filter_complex")
	assert.Contains(t, joined, "-map [outv] -map [outa] -c:a aac -b:a 192k")
	assert.Contains(t, joined, "-c:v libx264 -preset medium -crf 23 -pix_fmt yuv420p -movflags +faststart -t 10")

	silent := strings.Join(EncodeArgs(AssembleInput{Frames: testFrames(1), DurationSeconds: 5}), " ")
	assert.NotContains(t, silent, "[outa]")
	assert.NotContains(t, silent, "-c:a")
}

func TestAssembleReportsProgressAndValidatesOutput(t *testing.T) {
	enc := &fakeEncoder{payload: []byte("mp4"), steps: []float64{0.1, 0.5, 1}}
	out := filepath.Join(t.TempDir(), "output.mp4")
	var seen []float64
	err := NewVideoAssembler(enc, nil).Assemble(context.Background(), AssembleInput{
		Frames: testFrames(5), DurationSeconds: 10, Output: out,
	}, func(f float64) { seen = append(seen, f) })
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.5, 1}, seen)
	require.Len(t, enc.jobs, 1)
	assert.Equal(t, out, enc.jobs[0].Output)
	assert.Equal(t, 10.0, enc.jobs[0].Duration.Seconds())
}

func TestAssembleFailures(t *testing.T) {
	tests := []struct {
		name string
		enc  *fakeEncoder
	}{
		{"encoder error", &fakeEncoder{err: errors.New("exit status 1")}},
		{"empty output", &fakeEncoder{payload: []byte{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewVideoAssembler(tt.enc, nil).Assemble(context.Background(), AssembleInput{
				Frames: testFrames(2), DurationSeconds: 5, Output: filepath.Join(t.TempDir(), "out.mp4"),
			}, nil)
			assert.ErrorIs(t, err, domain.ErrAssembly)
		})
	}

	err := NewVideoAssembler(&fakeEncoder{}, nil).Assemble(context.Background(), AssembleInput{Output: "x.mp4"}, nil)
	assert.ErrorIs(t, err, domain.ErrAssembly)
}
