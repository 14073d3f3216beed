package encoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"videogen/internal/infra"
)

// Job describes one encode. Args hold inputs, filter graph and codec
// options; the encoder appends its own progress flags and the output path.
type Job struct {
	Args     []string
	Output   string
	Duration time.Duration
}

// ProgressFunc receives the encode's completed fraction in [0,1].
type ProgressFunc func(fraction float64)

// Encoder runs an encode to completion, reporting progress along the way.
type Encoder interface {
	Encode(ctx context.Context, job Job, progress ProgressFunc) error
}

// FFmpeg drives the ffmpeg binary as a subprocess.
type FFmpeg struct {
	Path      string
	ProbePath string
	Timeout   time.Duration
	Logger    *infra.Logger
}

const stderrTail = 4096

// Encode blocks until ffmpeg exits. Progress lines from -progress pipe:1 are
// parsed on a separate goroutine and delivered over a channel, so callers see
// one terminal result and a monotonic stream of progress callbacks.
func (f *FFmpeg) Encode(ctx context.Context, job Job, progress ProgressFunc) error {
	if strings.TrimSpace(job.Output) == "" {
		return errors.New("ffmpeg: output path is required")
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	args := make([]string, 0, len(job.Args)+8)
	args = append(args, "-hide_banner", "-y")
	args = append(args, job.Args...)
	args = append(args, "-progress", "pipe:1", "-nostats", job.Output)

	cmd := exec.CommandContext(ctx, f.binary(), args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg: stdout pipe: %w", err)
	}
	stderr := &tailBuffer{max: stderrTail}
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg: start: %w", err)
	}

	events := make(chan float64, 8)
	go func() {
		defer close(events)
		ParseProgress(stdout, job.Duration, func(fraction float64) { events <- fraction })
	}()
	for fraction := range events {
		if progress != nil {
			progress(fraction)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if f.Logger != nil {
		f.Logger.Debug().Str("output", job.Output).Dur("took", time.Since(start)).Msg("ffmpeg: encode finished")
	}
	return nil
}

// Probe returns the container duration reported by ffprobe.
func (f *FFmpeg) Probe(ctx context.Context, path string) (time.Duration, error) {
	probe := f.ProbePath
	if probe == "" {
		probe = "ffprobe"
	}
	out, err := exec.CommandContext(ctx, probe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: parse duration: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func (f *FFmpeg) binary() string {
	if f.Path == "" {
		return "ffmpeg"
	}
	return f.Path
}

// ParseProgress reads ffmpeg -progress key=value output and emits the
// completed fraction of total whenever it advances. progress=end emits 1.
func ParseProgress(r io.Reader, total time.Duration, emit func(float64)) {
	scanner := bufio.NewScanner(r)
	last := -1.0
	report := func(fraction float64) {
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		if fraction > last {
			last = fraction
			emit(fraction)
		}
	}
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		// out_time_ms is microseconds as well, despite the name.
		case "out_time_us", "out_time_ms":
			if total <= 0 {
				continue
			}
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				continue
			}
			report(float64(time.Duration(us)*time.Microsecond) / float64(total))
		case "progress":
			if value == "end" {
				report(1)
			}
		}
	}
	// Drain anything left so the subprocess never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

var _ Encoder = (*FFmpeg)(nil)
