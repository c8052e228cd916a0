package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/fitscan/internal/config"
	"github.com/claude/fitscan/internal/datauri"
	"github.com/claude/fitscan/internal/models"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legPressJSON = `{
  "detected": true,
  "equipmentName": "Leg Press 45",
  "category": "machine",
  "muscleGroups": ["Quadriceps", "Glutes"],
  "description": "Sled leg press at 45 degrees.",
  "exercises": [
    {"name": "Leg Press", "sets": "4", "reps": "10-12", "rest": "90", "difficulty": "Intermediário", "description": "Push the sled."},
    {"name": "Narrow Leg Press", "sets": 3, "reps": "12", "rest": 60, "difficulty": "beginner", "description": "Feet together."},
    {"name": "Calf Press", "sets": "3-4", "reps": "15", "rest": "45-60 seconds", "difficulty": "beginner", "description": "Toes on the edge."}
  ],
  "tips": ["Keep your back flat"],
  "commonMistakes": ["Locking the knees"]
}`

var testImage = mustImage()

func mustImage() datauri.DataURI {
	d, err := datauri.Parse("data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg==")
	if err != nil {
		panic(err)
	}
	return d
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
	last  openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}}},
	}, nil
}

func testConfig() config.OpenAIConfig {
	return config.OpenAIConfig{Model: "gpt-4o", MaxTokens: 2500, Temperature: 0.7}
}

// TestParseReplyDetected verifies a positive reply is parsed into a typed
// result, with numeric fields kept as text and difficulties normalized.
func TestParseReplyDetected(t *testing.T) {
	res, err := ParseReply(legPressJSON)
	require.NoError(t, err)
	assert.True(t, res.Detected)
	assert.Equal(t, "Leg Press 45", res.EquipmentName)
	assert.Equal(t, []string{"Quadriceps", "Glutes"}, res.MuscleGroups)
	require.Len(t, res.Exercises, 3)
	assert.Equal(t, "3", res.Exercises[1].Sets)
	assert.Equal(t, "60", res.Exercises[1].Rest)
	assert.Equal(t, models.DifficultyIntermediate, res.Exercises[0].Difficulty)
	assert.Equal(t, []string{"Locking the knees"}, res.CommonMistakes)
}

// TestParseReplyFencedEqualsBare verifies code-fence wrapping does not change
// the parsed result.
func TestParseReplyFencedEqualsBare(t *testing.T) {
	bare, err := ParseReply(legPressJSON)
	require.NoError(t, err)

	for _, wrapped := range []string{
		"```json\n" + legPressJSON + "\n```",
		"```\n" + legPressJSON + "\n```",
		"  ```JSON\n" + legPressJSON + "```  ",
		"```" + legPressJSON + "```",
	} {
		got, err := ParseReply(wrapped)
		require.NoError(t, err)
		assert.Equal(t, bare, got)
	}
}

// TestParseReplyNotDetected verifies a negative detection is a valid result.
func TestParseReplyNotDetected(t *testing.T) {
	res, err := ParseReply(`{"detected": false, "message": "This is a cat."}`)
	require.NoError(t, err)
	assert.False(t, res.Detected)
	assert.Equal(t, "This is a cat.", res.Message)

	res, err = ParseReply(`{"detected": false}`)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Message)
}

// TestParseReplyErrors verifies malformed replies and business-rule
// violations are parse errors, and that both are retryable.
func TestParseReplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  error
	}{
		{"empty", "", ErrUnparseable},
		{"fence only", "```json\n```", ErrUnparseable},
		{"prose", "Sorry, I cannot help with that.", ErrUnparseable},
		{"truncated", `{"detected": true, "equipmentName": "Bench"`, ErrUnparseable},
		{"no name", `{"detected": true, "exercises": [{"name": "Press"}]}`, ErrUnparseable},
		{"no exercises", `{"detected": true, "equipmentName": "Bench", "exercises": []}`, ErrNoExercises},
		{"unnamed exercises", `{"detected": true, "equipmentName": "Bench", "exercises": [{"sets": "3"}]}`, ErrNoExercises},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReply(tt.reply)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, Retryable(err))
		})
	}
}

// TestParseReplyProseAroundObject verifies a reply with text around the JSON
// object is still accepted.
func TestParseReplyProseAroundObject(t *testing.T) {
	res, err := ParseReply("Here is the analysis:\n" + legPressJSON + "\nHope it helps!")
	require.NoError(t, err)
	assert.Equal(t, "Leg Press 45", res.EquipmentName)
}

// TestRecognizeNotConfigured verifies a missing key fails before any call.
func TestRecognizeNotConfigured(t *testing.T) {
	g := New(config.OpenAIConfig{}, testLogger())
	assert.False(t, g.Configured())

	_, err := g.Recognize(context.Background(), testImage)
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, Retryable(err))
}

// TestRecognizeRequestShape verifies one multimodal user message carrying
// the instruction text and the data URI is sent.
func TestRecognizeRequestShape(t *testing.T) {
	fc := &fakeCompleter{reply: "```json\n" + legPressJSON + "\n```"}
	g := NewWithClient(fc, testConfig(), testLogger())
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	res, err := g.Recognize(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, fixed, res.Timestamp)
	assert.Equal(t, 1, fc.calls)

	req := fc.last
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 2500, req.MaxTokens)
	assert.False(t, req.Stream)
	require.Len(t, req.Messages, 1)
	parts := req.Messages[0].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, openai.ChatMessagePartTypeText, parts[0].Type)
	assert.Contains(t, parts[0].Text, "at least 3 exercises")
	assert.Equal(t, openai.ChatMessagePartTypeImageURL, parts[1].Type)
	assert.Equal(t, testImage.String(), parts[1].ImageURL.URL)
}

// TestRecognizeNoChoices verifies an empty completion is a parse error.
func TestRecognizeNoChoices(t *testing.T) {
	g := NewWithClient(emptyCompleter{}, testConfig(), testLogger())
	_, err := g.Recognize(context.Background(), testImage)
	require.ErrorIs(t, err, ErrUnparseable)
}

type emptyCompleter struct{}

func (emptyCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}

// newFakeOpenAI serves /v1/chat/completions with a fixed status and body.
func newFakeOpenAI(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected request path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func completionBody(t *testing.T, content string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	require.NoError(t, err)
	return string(b)
}

// TestRecognizeOverHTTP verifies the real client talks to a compatible
// endpoint and the reply is parsed end to end.
func TestRecognizeOverHTTP(t *testing.T) {
	ts := newFakeOpenAI(t, http.StatusOK, completionBody(t, legPressJSON))
	cfg := testConfig()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = ts.URL + "/v1"

	res, err := New(cfg, testLogger()).Recognize(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, "Leg Press 45", res.EquipmentName)
}

// TestRecognizeUpstreamStatus verifies provider statuses map 1:1 for auth,
// rate limit and bad request, and to 500 for anything else.
func TestRecognizeUpstreamStatus(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   int
	}{
		{http.StatusUnauthorized, `{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`, http.StatusUnauthorized},
		{http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests"}}`, http.StatusTooManyRequests},
		{http.StatusBadRequest, `{"error":{"message":"Invalid image","type":"invalid_request_error"}}`, http.StatusBadRequest},
		{http.StatusServiceUnavailable, `{"error":{"message":"Overloaded","type":"server_error"}}`, http.StatusInternalServerError},
		{http.StatusBadGateway, `<html>bad gateway</html>`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := newFakeOpenAI(t, tt.status, tt.body)
			cfg := testConfig()
			cfg.APIKey = "sk-test"
			cfg.BaseURL = ts.URL + "/v1"

			_, err := New(cfg, testLogger()).Recognize(context.Background(), testImage)
			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr), "want UpstreamError, got %v", err)
			assert.Equal(t, tt.want, upErr.StatusCode())
			assert.False(t, Retryable(err))
		})
	}
}

// TestGenerateRoutine verifies the routine reply is extracted and converted
// to a plan with equipment back-references.
func TestGenerateRoutine(t *testing.T) {
	reply := `Sure! {"workout": {"name": "Full Body", "description": "Quick session", "duration": "45 minutes",
	  "difficulty": "beginner",
	  "exercises": [
	    {"id": "1", "name": "Leg Press", "equipment": "Leg Press 45", "sets": 3, "reps": "12", "rest": "60", "instructions": "Push.", "tips": "Slow down."},
	    {"id": "2", "name": "Chest Press", "equipment": "Chest Press", "sets": "4", "reps": "10", "rest": "90", "instructions": "Press.", "tips": "Exhale."}
	  ],
	  "warmup": ["5 min bike"], "cooldown": "Stretch"}}`
	fc := &fakeCompleter{reply: reply}
	g := NewWithClient(fc, testConfig(), testLogger())

	equipment := []models.EquipmentRecord{
		{Name: "Leg Press 45", MuscleGroups: []string{"quadriceps"}},
		{Name: "Chest Press", MuscleGroups: []string{"chest"}},
	}
	plan, err := g.GenerateRoutine(context.Background(), equipment, &RoutineProfile{Goal: "tone", Level: "beginner"})
	require.NoError(t, err)

	assert.Equal(t, "Full Body", plan.Name)
	assert.Equal(t, 45, plan.DurationMinutes)
	require.Len(t, plan.Exercises, 2)
	assert.Equal(t, "3", plan.Exercises[0].Sets)
	assert.Equal(t, "Push.", plan.Exercises[0].Description)
	assert.Equal(t, "Leg Press 45", plan.Exercises[0].Equipment)
	assert.Equal(t, []string{"5 min bike"}, plan.Warmup)
	assert.Equal(t, []string{"Stretch"}, plan.Cooldown)
	require.Len(t, plan.Equipment, 2)

	require.Len(t, fc.last.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fc.last.Messages[0].Role)
	assert.Contains(t, fc.last.Messages[1].Content, "Leg Press 45")
	assert.Contains(t, fc.last.Messages[1].Content, "Goal: tone")
}

// TestGenerateRoutineValidation verifies an empty equipment list is rejected
// before the model is called.
func TestGenerateRoutineValidation(t *testing.T) {
	fc := &fakeCompleter{}
	g := NewWithClient(fc, testConfig(), testLogger())
	_, err := g.GenerateRoutine(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrNoEquipment)
	assert.Zero(t, fc.calls)
}

// TestGenerateRoutineMissingWorkout verifies a reply without the workout
// object is a parse error.
func TestGenerateRoutineMissingWorkout(t *testing.T) {
	g := NewWithClient(&fakeCompleter{reply: `{"routine": {}}`}, testConfig(), testLogger())
	_, err := g.GenerateRoutine(context.Background(), []models.EquipmentRecord{{Name: "Bench"}}, nil)
	require.ErrorIs(t, err, ErrUnparseable)
}

// TestDurationFallback verifies a routine without a usable duration is
// estimated from its exercise count.
func TestDurationFallback(t *testing.T) {
	plan, err := parseRoutine(`{"workout": {"name": "X", "duration": "", "exercises": [{"name": "A"}, {"name": "B"}]}}`)
	require.NoError(t, err)
	assert.Equal(t, 10, plan.DurationMinutes)
}
