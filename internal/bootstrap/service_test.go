package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videogen/internal/adapter/repo"
	"videogen/internal/infra"
	"videogen/internal/providers/freesound"
	"videogen/internal/providers/stability"
)

func testConfig(t *testing.T) *infra.Config {
	t.Helper()
	root := t.TempDir()
	return &infra.Config{
		AppEnv:          "test",
		VideosDir:       filepath.Join(root, "videos"),
		VideoBaseURL:    "/videos",
		TempDir:         filepath.Join(root, "tmp"),
		StoreDriver:     infra.StoreMemory,
		ImageAPIKey:     "sk-test",
		AudioStrategy:   infra.AudioStrategySearch,
		FreesoundAPIKey: "fs-test",
		FFmpegPath:      "ffmpeg",
		ProgressTTL:     time.Minute,
	}
}

func TestNewMemoryService(t *testing.T) {
	svc, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer svc.Close()

	assert.IsType(t, &repo.GenerationRepositoryMemory{}, svc.Repo)
	assert.NotNil(t, svc.Orchestrator)
	assert.Same(t, svc.Tracker, svc.Orchestrator.Tracker())
	assert.True(t, svc.Orchestrator.HasAudio())
	assert.DirExists(t, svc.Videos.BasePath())
}

func TestNewRequiresKeys(t *testing.T) {
	cfg := testConfig(t)
	cfg.ImageAPIKey = ""
	_, err := New(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, stability.ErrMissingAPIKey))

	cfg = testConfig(t)
	cfg.FreesoundAPIKey = ""
	_, err = New(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, freesound.ErrMissingAPIKey))
}

func TestNewSilentAndGenerateStrategies(t *testing.T) {
	cfg := testConfig(t)
	cfg.AudioStrategy = infra.AudioStrategyNone
	cfg.FreesoundAPIKey = ""
	svc, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.False(t, svc.Orchestrator.HasAudio())

	var healthCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		healthCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "healthy", "model": "musicgen-small", "device": "cpu", "model_loaded": true})
	}))
	defer server.Close()

	cfg = testConfig(t)
	cfg.AudioStrategy = infra.AudioStrategyGenerate
	cfg.MusicGenURL = server.URL
	svc, err = New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.True(t, svc.Orchestrator.HasAudio())
	assert.Equal(t, 1, healthCalls)
}
