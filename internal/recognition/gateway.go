// Package recognition wraps the vision-language model that identifies gym
// equipment in a photo and proposes exercises for it.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/fitscan/internal/config"
	"github.com/claude/fitscan/internal/datauri"
	"github.com/claude/fitscan/internal/models"
	"github.com/sashabaranov/go-openai"
)

var (
	// ErrNotConfigured means no API key is available; no request was sent.
	ErrNotConfigured = errors.New("recognition: OpenAI API key not configured")
	// ErrUnparseable means the model reply held no usable JSON object.
	ErrUnparseable = errors.New("recognition: unparseable model reply")
	// ErrNoExercises means the model claimed a detection but proposed no exercises.
	ErrNoExercises = errors.New("recognition: detected equipment without exercises")
	// ErrNoEquipment means a routine was requested for an empty equipment list.
	ErrNoEquipment = errors.New("recognition: equipment list is required")
)

// UpstreamError is a failure status returned by the model provider.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("recognition: upstream status %d: %v", e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StatusCode returns the status to surface to callers. Auth, rate-limit and
// bad-request statuses pass through; everything else is a 500.
func (e *UpstreamError) StatusCode() int {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusBadRequest:
		return e.Status
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether err is a parse failure the user may retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnparseable) || errors.Is(err, ErrNoExercises)
}

// ChatCompleter is the subset of the OpenAI client used by the gateway.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Result is the outcome of one recognition call. A negative detection is a
// valid result with Detected=false and a Message.
type Result struct {
	Detected       bool                      `json:"detected"`
	Message        string                    `json:"message,omitempty"`
	EquipmentName  string                    `json:"equipmentName,omitempty"`
	Category       string                    `json:"category,omitempty"`
	MuscleGroups   []string                  `json:"muscleGroups,omitempty"`
	Description    string                    `json:"description,omitempty"`
	Exercises      []models.ExerciseTemplate `json:"exercises,omitempty"`
	Tips           []string                  `json:"tips,omitempty"`
	CommonMistakes []string                  `json:"commonMistakes,omitempty"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// Record converts a positive result into an inventory record.
func (r *Result) Record(userID, imageURL string) models.EquipmentRecord {
	return models.EquipmentRecord{
		UserID:         userID,
		Name:           r.EquipmentName,
		Category:       r.Category,
		MuscleGroups:   append([]string(nil), r.MuscleGroups...),
		Description:    r.Description,
		Detected:       r.Detected,
		ImageURL:       imageURL,
		Exercises:      models.CloneExercises(r.Exercises),
		Tips:           append([]string(nil), r.Tips...),
		CommonMistakes: append([]string(nil), r.CommonMistakes...),
	}
}

// Gateway sends images and routine requests to the model. Each call is a
// single best-effort request; retries are left to the user.
type Gateway struct {
	client      ChatCompleter
	model       string
	maxTokens   int
	temperature float32
	language    string
	log         *slog.Logger
	now         func() time.Time
}

// New builds a gateway from config. Without an API key the gateway is
// created anyway and every call fails with ErrNotConfigured.
func New(cfg config.OpenAIConfig, log *slog.Logger) *Gateway {
	var client ChatCompleter
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		}
		client = openai.NewClientWithConfig(oc)
	}
	return NewWithClient(client, cfg, log)
}

// NewWithClient builds a gateway around an existing client. A nil client
// behaves like a missing API key.
func NewWithClient(client ChatCompleter, cfg config.OpenAIConfig, log *slog.Logger) *Gateway {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	language := cfg.Language
	if language == "" {
		language = "English"
	}
	return &Gateway{
		client:      client,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		language:    language,
		log:         log,
		now:         time.Now,
	}
}

// Configured reports whether calls can reach the model.
func (g *Gateway) Configured() bool {
	return g.client != nil
}

// Recognize asks the model to identify the equipment in img.
func (g *Gateway) Recognize(ctx context.Context, img datauri.DataURI) (*Result, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: recognitionPrompt(g.language)},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    img.String(),
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		}},
	}

	content, err := g.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := ParseReply(content)
	if err != nil {
		g.log.Warn("recognition reply rejected", "error", err, "reply_len", len(content))
		return nil, err
	}
	res.Timestamp = g.now().UTC()
	return res, nil
}

func (g *Gateway) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", upstreamError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrUnparseable)
	}
	return resp.Choices[0].Message.Content, nil
}

// upstreamError classifies a client error by the provider's HTTP status.
func upstreamError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("recognition: %w", ctx.Err())
	}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	status := 0
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	return &UpstreamError{Status: status, Err: err}
}
