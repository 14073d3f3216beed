package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"videogen/internal/bootstrap"
	"videogen/internal/domain"
	"videogen/internal/infra"
	"videogen/internal/pipeline"
)

const pollInterval = 250 * time.Millisecond

func main() {
	_ = godotenv.Load()

	prompt := flag.String("prompt", "", "text prompt describing the video")
	duration := flag.Int("duration", 10, "video length in seconds (5-30)")
	flag.Parse()

	if strings.TrimSpace(*prompt) == "" {
		fmt.Fprintln(os.Stderr, "usage: generate -prompt \"a calm lake at sunrise\" [-duration 10]")
		os.Exit(2)
	}
	if *duration < domain.MinDurationSeconds || *duration > domain.MaxDurationSeconds {
		fmt.Fprintf(os.Stderr, "duration must be between %d and %d seconds\n", domain.MinDurationSeconds, domain.MaxDurationSeconds)
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	cfg.StoreDriver = infra.StoreMemory
	logger := infra.NewLogger(cfg).Level(cliLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.New(ctx, cfg, &logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup:", err)
		os.Exit(1)
	}
	defer svc.Close()

	requestID := uuid.NewString()
	svc.Tracker.Start(requestID)

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(string(pipeline.StageValidating)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(os.Stderr),
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if state, ok := svc.Tracker.Get(requestID); ok && state.Percent >= 0 {
					bar.Describe(state.Stage)
					_ = bar.Set(state.Percent)
				}
			}
		}
	}()

	record, err := svc.Orchestrator.Run(ctx, requestID, domain.GenerationRequest{Prompt: *prompt, DurationSeconds: *duration})
	close(done)
	if record == nil {
		_ = bar.Clear()
		fmt.Fprintln(os.Stderr, "generation failed:", err)
		os.Exit(1)
	}
	bar.Describe(string(pipeline.StageComplete))
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if errors.Is(err, domain.ErrPersistence) {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	path, _ := svc.Videos.Path(requestID + ".mp4")
	fmt.Printf("video: %s\n", path)
	fmt.Printf("url:   %s\n", record.VideoURL)
	if record.HasAudio {
		fmt.Printf("audio: %s\n", record.AudioSource)
	}
	if length, err := svc.Encoder.Probe(ctx, path); err == nil {
		fmt.Printf("length: %.1fs\n", length.Seconds())
	}
}

// cliLevel keeps the terminal quiet so the progress bar stays readable,
// unless LOG_LEVEL asks for more.
func cliLevel() zerolog.Level {
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if lvl, err := zerolog.ParseLevel(raw); err == nil {
			return lvl
		}
	}
	return zerolog.WarnLevel
}
