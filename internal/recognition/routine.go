package recognition

import (
	"context"

	"github.com/claude/fitscan/internal/models"
	"github.com/sashabaranov/go-openai"
)

// GenerateRoutine asks the model for a complete routine built from the given
// equipment. The returned plan carries no user, type or day; callers fill
// those in.
func (g *Gateway) GenerateRoutine(ctx context.Context, equipment []models.EquipmentRecord, p *RoutineProfile) (*models.WorkoutPlan, error) {
	if len(equipment) == 0 {
		return nil, ErrNoEquipment
	}
	if g.client == nil {
		return nil, ErrNotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: routineSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: routinePrompt(equipment, p, g.language)},
		},
	}

	content, err := g.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	plan, err := parseRoutine(content)
	if err != nil {
		g.log.Warn("routine reply rejected", "error", err, "reply_len", len(content))
		return nil, err
	}

	plan.Equipment = make([]models.EquipmentRef, 0, len(equipment))
	for _, e := range equipment {
		plan.Equipment = append(plan.Equipment, models.EquipmentRef{ID: e.ID, Name: e.Name})
	}
	return plan, nil
}
