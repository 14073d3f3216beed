package domain

import (
	"strings"
	"time"
)

const (
	MinDurationSeconds = 5
	MaxDurationSeconds = 30
)

// GenerationRequest is the caller input for one pipeline run.
type GenerationRequest struct {
	Prompt          string
	DurationSeconds int
}

// Validate checks the invariants the pipeline itself relies on. The [5,30]
// bound is applied by the HTTP boundary, not here.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return Invalid("prompt is required")
	}
	if r.DurationSeconds <= 0 {
		return Invalid("duration must be a positive number of seconds")
	}
	return nil
}

// Frame is one generated still image owned by a single run.
type Frame struct {
	Index     int
	ImagePath string
}

// AudioSource records which acquisition tier produced the audio track.
type AudioSource string

const (
	AudioSourceGenerated     AudioSource = "generated"
	AudioSourceDirectSearch  AudioSource = "direct-search"
	AudioSourceKeywordSearch AudioSource = "keyword-search"
	AudioSourceDefaultSearch AudioSource = "default-search"
)

// AudioAsset is the single audio track of a run.
type AudioAsset struct {
	Path   string
	Source AudioSource
	Label  string
}

// ProgressState is what polling clients see for one request.
type ProgressState struct {
	RequestID    string    `json:"requestId"`
	Percent      int       `json:"progress"`
	Stage        string    `json:"stage"`
	VideoURL     string    `json:"videoUrl,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Terminal reports whether the state reached success or failure.
func (p ProgressState) Terminal() bool {
	return p.Percent == 100 || p.Percent == -1
}

// GenerationRecord is the persisted result of a successful run.
type GenerationRecord struct {
	ID              string    `json:"id" bson:"_id"`
	Prompt          string    `json:"prompt" bson:"prompt"`
	VideoURL        string    `json:"videoUrl" bson:"video_url"`
	DurationSeconds int       `json:"duration" bson:"duration_seconds"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
	HasAudio        bool      `json:"hasAudio" bson:"has_audio"`
	AudioSource     string    `json:"audioSource,omitempty" bson:"audio_source,omitempty"`
}
