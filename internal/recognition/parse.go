package recognition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claude/fitscan/internal/models"
)

// flexString accepts a JSON string, number or null. Models are inconsistent
// about quoting numeric fields like sets.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexStrings accepts either a JSON array of strings or a single string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s != "" {
			*f = []string{s}
		}
		return nil
	}
	var items []flexString
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it != "" {
			out = append(out, string(it))
		}
	}
	*f = out
	return nil
}

type wireExercise struct {
	ID           flexString `json:"id"`
	Name         string     `json:"name"`
	Equipment    string     `json:"equipment"`
	Sets         flexString `json:"sets"`
	Reps         flexString `json:"reps"`
	Rest         flexString `json:"rest"`
	Difficulty   string     `json:"difficulty"`
	Description  string     `json:"description"`
	Instructions string     `json:"instructions"`
	Tips         flexString `json:"tips"`
}

func (w wireExercise) template() models.ExerciseTemplate {
	desc := w.Description
	if desc == "" {
		desc = w.Instructions
	}
	diff, _ := models.NormalizeDifficulty(w.Difficulty)
	return models.ExerciseTemplate{
		Name:        strings.TrimSpace(w.Name),
		Sets:        string(w.Sets),
		Reps:        string(w.Reps),
		Rest:        string(w.Rest),
		Difficulty:  diff,
		Description: desc,
		Equipment:   w.Equipment,
		Tips:        string(w.Tips),
	}
}

func templates(in []wireExercise) []models.ExerciseTemplate {
	out := make([]models.ExerciseTemplate, 0, len(in))
	for _, w := range in {
		if strings.TrimSpace(w.Name) == "" {
			continue
		}
		out = append(out, w.template())
	}
	return out
}

type wireRecognition struct {
	Detected       bool           `json:"detected"`
	Message        string         `json:"message"`
	EquipmentName  string         `json:"equipmentName"`
	Category       string         `json:"category"`
	MuscleGroups   flexStrings    `json:"muscleGroups"`
	Description    string         `json:"description"`
	Exercises      []wireExercise `json:"exercises"`
	Tips           flexStrings    `json:"tips"`
	CommonMistakes flexStrings    `json:"commonMistakes"`
}

// StripFences removes markdown code-fence wrapping (```json ... ```) from a
// model reply.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string, e.g. "json".
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		if info := strings.TrimSpace(s[:i]); !strings.ContainsAny(info, "{[") {
			s = s[i+1:]
		}
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the text from the first '{' to the last '}'.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// decodeObject decodes one JSON object from a model reply, tolerating code
// fences and stray prose around the object.
func decodeObject(content string, v any) error {
	body := StripFences(content)
	if body == "" {
		return fmt.Errorf("%w: empty reply", ErrUnparseable)
	}
	err := json.Unmarshal([]byte(body), v)
	if err == nil {
		return nil
	}
	if obj, ok := extractObject(body); ok && obj != body {
		if err2 := json.Unmarshal([]byte(obj), v); err2 == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrUnparseable, err)
}

// ParseReply turns a recognition reply into a Result. A negative detection
// is a valid result, not an error.
func ParseReply(content string) (*Result, error) {
	var w wireRecognition
	if err := decodeObject(content, &w); err != nil {
		return nil, err
	}

	if !w.Detected {
		msg := strings.TrimSpace(w.Message)
		if msg == "" {
			msg = "no gym equipment detected in the image"
		}
		return &Result{Detected: false, Message: msg}, nil
	}

	name := strings.TrimSpace(w.EquipmentName)
	if name == "" {
		return nil, fmt.Errorf("%w: missing equipmentName", ErrUnparseable)
	}
	exercises := templates(w.Exercises)
	if len(exercises) == 0 {
		return nil, ErrNoExercises
	}

	return &Result{
		Detected:       true,
		EquipmentName:  name,
		Category:       w.Category,
		MuscleGroups:   []string(w.MuscleGroups),
		Description:    w.Description,
		Exercises:      exercises,
		Tips:           []string(w.Tips),
		CommonMistakes: []string(w.CommonMistakes),
	}, nil
}

type wireWorkout struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Duration    flexString     `json:"duration"`
	Difficulty  string         `json:"difficulty"`
	Exercises   []wireExercise `json:"exercises"`
	Warmup      flexStrings    `json:"warmup"`
	Cooldown    flexStrings    `json:"cooldown"`
}

// parseRoutine turns a routine-generation reply into a plan. Sets given as
// numbers are kept as their decimal text.
func parseRoutine(content string) (*models.WorkoutPlan, error) {
	var w struct {
		Workout *wireWorkout `json:"workout"`
	}
	if err := decodeObject(content, &w); err != nil {
		return nil, err
	}
	if w.Workout == nil {
		return nil, fmt.Errorf("%w: missing workout object", ErrUnparseable)
	}

	exercises := templates(w.Workout.Exercises)
	if len(exercises) == 0 {
		return nil, ErrNoExercises
	}

	duration, ok := models.LeadingInt(string(w.Workout.Duration))
	if !ok || duration <= 0 {
		duration = len(exercises) * minutesPerExercise
	}

	return &models.WorkoutPlan{
		Name:            w.Workout.Name,
		Description:     w.Workout.Description,
		DurationMinutes: duration,
		Exercises:       exercises,
		Warmup:          []string(w.Workout.Warmup),
		Cooldown:        []string(w.Workout.Cooldown),
	}, nil
}

// minutesPerExercise estimates routine length when the model gives none.
const minutesPerExercise = 5
