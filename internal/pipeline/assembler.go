package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"videogen/internal/domain"
	"videogen/internal/encoder"
	"videogen/internal/infra"
)

// Output format shared by every video.
const (
	OutputSize       = 1024
	OutputFPS        = 25
	AudioSampleRate  = 44100
	videoCodec       = "libx264"
	videoPreset      = "medium"
	videoCRF         = "23"
	pixelFormat      = "yuv420p"
	audioCodec       = "aac"
	audioBitrate     = "192k"
	progressiveFlags = "+faststart"
)

// AssembleInput is everything the encoder needs for one video.
type AssembleInput struct {
	Frames          []domain.Frame
	Audio           *domain.AudioAsset
	DurationSeconds int
	Output          string
}

// VideoAssembler turns frames and an optional audio track into one muxed file.
type VideoAssembler struct {
	encoder encoder.Encoder
	logger  *infra.Logger
}

func NewVideoAssembler(enc encoder.Encoder, logger *infra.Logger) *VideoAssembler {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &VideoAssembler{encoder: enc, logger: logger}
}

// SliceSeconds is how long each frame stays on screen, rounded up so the
// frames together never fall short of the requested duration.
func SliceSeconds(durationSeconds, frameCount int) int {
	if frameCount < 1 {
		frameCount = 1
	}
	slice := (durationSeconds + frameCount - 1) / frameCount
	if slice < 1 {
		return 1
	}
	return slice
}

// FilterGraph scales and pads every frame to the square output, concatenates
// them, and normalises the audio input when there is one.
func FilterGraph(frameCount int, withAudio bool) string {
	chains := make([]string, 0, frameCount+2)
	labels := make([]string, 0, frameCount)
	for i := 0; i < frameCount; i++ {
		chains = append(chains, fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,format=%s,fps=%d[v%d]",
			i, OutputSize, OutputSize, OutputSize, OutputSize, pixelFormat, OutputFPS, i,
		))
		labels = append(labels, fmt.Sprintf("[v%d]", i))
	}
	chains = append(chains, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[outv]", strings.Join(labels, ""), frameCount))
	if withAudio {
		chains = append(chains, fmt.Sprintf(
			"[%d:a]aresample=%d,aformat=sample_fmts=fltp:channel_layouts=stereo,apad[outa]",
			frameCount, AudioSampleRate,
		))
	}
	return strings.Join(chains, ";")
}

// EncodeArgs lays out inputs, the filter graph and codec options.
func EncodeArgs(in AssembleInput) []string {
	slice := strconv.Itoa(SliceSeconds(in.DurationSeconds, len(in.Frames)))
	args := make([]string, 0, len(in.Frames)*6+24)
	for _, frame := range in.Frames {
		args = append(args, "-loop", "1", "-t", slice, "-i", frame.ImagePath)
	}
	withAudio := in.Audio != nil
	if withAudio {
		args = append(args, "-i", in.Audio.Path)
	}
	args = append(args, "-filter_complex", FilterGraph(len(in.Frames), withAudio), "-map", "[outv]")
	if withAudio {
		args = append(args, "-map", "[outa]", "-c:a", audioCodec, "-b:a", audioBitrate)
	}
	args = append(args,
		"-c:v", videoCodec,
		"-preset", videoPreset,
		"-crf", videoCRF,
		"-pix_fmt", pixelFormat,
		"-movflags", progressiveFlags,
		"-t", strconv.Itoa(in.DurationSeconds),
	)
	return args
}

// Assemble encodes the video and checks the output is a non-empty file.
// progress receives the encode's completed fraction.
func (a *VideoAssembler) Assemble(ctx context.Context, in AssembleInput, progress func(fraction float64)) error {
	if len(in.Frames) == 0 {
		return fmt.Errorf("%w: no frames to assemble", domain.ErrAssembly)
	}
	start := time.Now()
	job := encoder.Job{
		Args:     EncodeArgs(in),
		Output:   in.Output,
		Duration: time.Duration(in.DurationSeconds) * time.Second,
	}
	if err := a.encoder.Encode(ctx, job, progress); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAssembly, err)
	}

	info, err := os.Stat(in.Output)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: encoder produced no output", domain.ErrAssembly)
	case err != nil:
		return fmt.Errorf("%w: %w", domain.ErrAssembly, err)
	case info.Size() == 0:
		return fmt.Errorf("%w: encoder produced an empty file", domain.ErrAssembly)
	}

	a.logger.Info().
		Int("frames", len(in.Frames)).
		Bool("audio", in.Audio != nil).
		Int64("bytes", info.Size()).
		Dur("took", time.Since(start)).
		Msg("video assembled")
	return nil
}
