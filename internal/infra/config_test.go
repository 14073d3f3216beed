package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("AUDIO_STRATEGY", "")
	t.Setenv("VIDEO_BASE_URL", "")
	t.Setenv("MUSICGEN_TIMEOUT_SECONDS", "")
	t.Setenv("FRONTEND_ORIGIN", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("StoreDriver mismatch: got %q want %q", cfg.StoreDriver, StoreMemory)
	}
	if cfg.AudioStrategy != AudioStrategySearch {
		t.Fatalf("AudioStrategy mismatch: got %q want %q", cfg.AudioStrategy, AudioStrategySearch)
	}
	if cfg.VideoBaseURL != "/videos" {
		t.Fatalf("VideoBaseURL mismatch: got %q", cfg.VideoBaseURL)
	}
	if cfg.MusicGenTimeout != 5*time.Minute {
		t.Fatalf("MusicGenTimeout mismatch: got %s", cfg.MusicGenTimeout)
	}
	if cfg.MusicGenTimeout <= cfg.SearchTimeout || cfg.MusicGenTimeout <= cfg.ImageTimeout {
		t.Fatalf("music generation timeout should exceed image/search timeouts")
	}
	if len(cfg.FrontendOrigins) != 1 || cfg.FrontendOrigins[0] != "http://localhost:3000" {
		t.Fatalf("FrontendOrigins mismatch: %#v", cfg.FrontendOrigins)
	}
}

func TestLoadConfigTrimsVideoBaseURL(t *testing.T) {
	t.Setenv("VIDEO_BASE_URL", "https://cdn.example.com/videos/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.VideoBaseURL != "https://cdn.example.com/videos" {
		t.Fatalf("VideoBaseURL mismatch: got %q", cfg.VideoBaseURL)
	}
}

func TestLoadConfigRequiresDriverSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without url", env: map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{name: "mongo without uri", env: map[string]string{"STORE_DRIVER": "mongo", "MONGO_URI": ""}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "generate without musicgen", env: map[string]string{"AUDIO_STRATEGY": "generate", "MUSICGEN_URL": ""}},
		{name: "unknown strategy", env: map[string]string{"AUDIO_STRATEGY": "radio"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestLoadConfigSplitsFrontendOrigins(t *testing.T) {
	t.Setenv("FRONTEND_ORIGIN", "http://localhost:3000, https://app.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"http://localhost:3000", "https://app.example.com"}
	if len(cfg.FrontendOrigins) != len(expected) {
		t.Fatalf("FrontendOrigins mismatch: got %#v want %#v", cfg.FrontendOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.FrontendOrigins[i] != origin {
			t.Fatalf("FrontendOrigins[%d] = %q, want %q", i, cfg.FrontendOrigins[i], origin)
		}
	}
}

func TestLoadConfigTrustProxy(t *testing.T) {
	t.Setenv("TRUST_PROXY", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TrustProxy {
		t.Fatal("TrustProxy should default to false")
	}

	t.Setenv("TRUST_PROXY", "true")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.TrustProxy {
		t.Fatal("TrustProxy should be enabled")
	}
}
