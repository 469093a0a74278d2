package generator

import (
	"context"
	"fmt"
	"strings"

	"novel-stella/internal/ai"
	"novel-stella/internal/models"

	"go.uber.org/zap"
)

// maxCharactersLen - предел для строк-продолжений блока Characters.
const maxCharactersLen = 200

func (g *storyGenerator) GenerateElements(ctx context.Context, userID int64, prompt, language string) (models.Elements, error) {
	example := elementsExampleEN
	if isKorean(language) {
		example = elementsExampleKO
	}
	msgs := withExamples(elementsSystemPrompt, []fewShot{example})
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: prompt})

	text, err := g.chat(ctx, userID, "elements", msgs, ai.GenerationParams{Temperature: ai.Float64(0.8)})
	if err != nil {
		return models.Elements{}, fmt.Errorf("%w: elements: %v", models.ErrGenerationFailed, err)
	}
	elements := ParseElements(text)
	g.logger.Debug("Elements generated", zap.Int64("userID", userID), zap.String("title", elements.Title))
	return elements, nil
}

// elementKeys - префиксы строк ответа в порядке шаблона.
var elementKeys = [...]string{"Title:", "Genre:", "Theme:", "Tone:", "Setting:", "Characters:"}

// ParseElements разбирает ответ вида "Title: ...\nGenre: ...".
// Строки без ключа после "Characters:" дописываются через пробел,
// пока блок не длиннее 200 символов. Неразобранные поля остаются пустыми.
func ParseElements(text string) models.Elements {
	var e models.Elements
	fields := [...]*string{&e.Title, &e.Genre, &e.Theme, &e.Tone, &e.Setting, &e.Characters}
	current := -1
	for _, raw := range strings.Split(strings.TrimSpace(text), "\n") {
		line := strings.TrimSpace(raw)
		matched := false
		for i, key := range elementKeys {
			if value, ok := strings.CutPrefix(line, key); ok {
				*fields[i] = strings.TrimSpace(value)
				current = i
				matched = true
				break
			}
		}
		if !matched && current == len(fields)-1 {
			if len(e.Characters)+len(line) <= maxCharactersLen {
				e.Characters += " " + line
			}
		}
		e.Characters = strings.TrimSpace(e.Characters)
	}
	return e
}

// FormatElements renders elements the way the prompts expect them.
func FormatElements(e models.Elements) string {
	return fmt.Sprintf("%q: %q,\n%q: %q,\n%q: %q,\n%q: %q,\n%q: %q,\n%q: %q",
		"title", e.Title,
		"genre", e.Genre,
		"theme", e.Theme,
		"tone", e.Tone,
		"setting", e.Setting,
		"characters", e.Characters,
	)
}
