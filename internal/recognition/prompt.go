package recognition

import (
	"fmt"
	"strings"

	"github.com/claude/fitscan/internal/models"
)

const recognitionTemplate = `You are a certified personal trainer looking at a photo taken inside a gym.
Identify the gym equipment or machine in the image.

If the image does not show gym equipment, answer only with:
{"detected": false, "message": "<short explanation>"}

Otherwise answer only with a JSON object in exactly this shape:
{
  "detected": true,
  "equipmentName": "<name of the equipment>",
  "category": "<machine | free weight | cable | bodyweight | cardio | accessory>",
  "muscleGroups": ["<primary muscle>", "<secondary muscle>"],
  "description": "<what the equipment is and how it is used>",
  "exercises": [
    {
      "name": "<exercise name>",
      "sets": "<e.g. 3-4>",
      "reps": "<e.g. 10-12>",
      "rest": "<rest between sets in seconds, e.g. 60-90>",
      "difficulty": "<beginner | intermediate | advanced>",
      "description": "<step by step execution>"
    }
  ],
  "tips": ["<safety tip>"],
  "commonMistakes": ["<common mistake>"]
}

Rules:
- Propose at least 3 exercises that can be done with this equipment.
- Every exercise must have name, sets, reps, rest, difficulty and description.
- Do not wrap the JSON in markdown and do not add any text outside it.
- Write all text values in %s.`

func recognitionPrompt(language string) string {
	return fmt.Sprintf(recognitionTemplate, language)
}

const routineSystemPrompt = "You are a personal trainer who designs safe gym routines. Always answer with a single valid JSON object and nothing else."

// RoutineProfile narrows a generated routine to the user.
type RoutineProfile struct {
	Goal       string `json:"goal"`
	Level      string `json:"level"`
	Conditions string `json:"conditions"`
}

func routinePrompt(equipment []models.EquipmentRecord, p *RoutineProfile, language string) string {
	var b strings.Builder
	b.WriteString("Create a complete workout routine using only the following equipment:\n")
	for _, e := range equipment {
		fmt.Fprintf(&b, "- %s", e.Name)
		if len(e.MuscleGroups) > 0 {
			fmt.Fprintf(&b, " (muscles: %s)", strings.Join(e.MuscleGroups, ", "))
		}
		if len(e.Exercises) > 0 {
			names := make([]string, 0, len(e.Exercises))
			for _, ex := range e.Exercises {
				names = append(names, ex.Name)
			}
			fmt.Fprintf(&b, "; known exercises: %s", strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}

	if p != nil {
		b.WriteString("\nUser profile:\n")
		if p.Goal != "" {
			fmt.Fprintf(&b, "- Goal: %s\n", p.Goal)
		}
		if p.Level != "" {
			fmt.Fprintf(&b, "- Level: %s\n", p.Level)
		}
		if p.Conditions != "" {
			fmt.Fprintf(&b, "- Health conditions: %s\n", p.Conditions)
		}
	}

	b.WriteString(`
Answer with this JSON shape:
{
  "workout": {
    "name": "<routine name>",
    "description": "<short description>",
    "duration": "<estimated minutes>",
    "difficulty": "<beginner | intermediate | advanced>",
    "exercises": [
      {
        "id": "<short id>",
        "name": "<exercise name>",
        "equipment": "<equipment used>",
        "sets": 3,
        "reps": "<e.g. 10-12>",
        "rest": "<seconds>",
        "instructions": "<how to perform it>",
        "tips": "<one safety tip>"
      }
    ],
    "warmup": ["<warm-up step>"],
    "cooldown": ["<cool-down step>"]
  }
}
`)
	fmt.Fprintf(&b, "Write all text values in %s.", language)
	return b.String()
}
