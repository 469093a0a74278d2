package generator

import (
	"context"
	"fmt"
	"strings"

	"novel-stella/internal/ai"
	"novel-stella/internal/models"
)

func (g *storyGenerator) GeneratePrologue(ctx context.Context, userID int64, elements models.Elements) (string, error) {
	msgs := withExamples(prologueSystemPrompt, []fewShot{prologueExample})
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: FormatElements(elements)})

	text, err := g.chat(ctx, userID, "prologue", msgs, ai.GenerationParams{
		Temperature: ai.Float64(0.9),
		MaxTokens:   ai.Int(500),
	})
	if err != nil {
		return "", fmt.Errorf("%w: prologue: %v", models.ErrGenerationFailed, err)
	}
	return strings.TrimSpace(text), nil
}
