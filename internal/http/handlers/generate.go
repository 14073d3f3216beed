package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"videogen/internal/domain"
)

const maxGenerateBody = 64 << 10

// durationSeconds accepts a JSON number or a numeric string, as browser
// forms tend to send the latter.
type durationSeconds int

func (d *durationSeconds) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("duration must be a number")
	}
	*d = durationSeconds(math.Round(f))
	return nil
}

type generateVideoRequest struct {
	Prompt   string          `json:"prompt" validate:"required,max=1000"`
	Duration durationSeconds `json:"duration" validate:"gte=5,lte=30"`
}

type generateVideoResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

type syncGenerateResponse struct {
	RequestID string `json:"requestId"`
	domain.GenerationRecord
}

// GenerateVideo starts a run. By default it answers 202 with the request id
// to poll; ?sync=true waits for the run and answers with the record.
func (a *App) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var body generateVideoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody)).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	body.Prompt = strings.TrimSpace(body.Prompt)
	if err := a.Validate.Struct(body); err != nil {
		a.error(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	req := domain.GenerationRequest{Prompt: body.Prompt, DurationSeconds: int(body.Duration)}
	requestID := uuid.NewString()

	if wantsSync(r) {
		record, err := a.Runner.Run(r.Context(), requestID, req)
		if record == nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrInvalidRequest) {
				status = http.StatusBadRequest
			}
			a.error(w, status, errorMessage(err))
			return
		}
		a.json(w, http.StatusOK, syncGenerateResponse{RequestID: requestID, GenerationRecord: *record})
		return
	}

	a.Tracker.Start(requestID)
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		if _, err := a.Runner.Run(a.BaseContext, requestID, req); err != nil {
			a.Logger.Warn().Err(err).Str("request_id", requestID).Msg("background generation ended with error")
		}
	}()
	a.json(w, http.StatusAccepted, generateVideoResponse{RequestID: requestID, Status: "accepted"})
}

func wantsSync(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("sync"))
	return err == nil && v
}

func errorMessage(err error) string {
	if err == nil {
		return "generation failed"
	}
	return err.Error()
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	switch fe := verrs[0]; fe.Field() {
	case "Prompt":
		if fe.Tag() == "max" {
			return "prompt is too long"
		}
		return "prompt is required"
	case "Duration":
		return fmt.Sprintf("duration must be between %d and %d seconds", domain.MinDurationSeconds, domain.MaxDurationSeconds)
	default:
		return fe.Error()
	}
}
