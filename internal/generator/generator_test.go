package generator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"novel-stella/internal/ai"
	"novel-stella/internal/generator"
	"novel-stella/internal/mocks"
	"novel-stella/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGenerator(t *testing.T) (generator.Generator, *mocks.MockTextClient) {
	t.Helper()
	client := mocks.NewMockTextClient(t)
	g := generator.New(client, nil, generator.Options{
		Retry:       generator.RetryPolicy{Attempts: 3, Delay: 0},
		MemoryLimit: 100,
	}, zap.NewNop())
	return g, client
}

func systemContains(substr string) interface{} {
	return mock.MatchedBy(func(msgs []ai.Message) bool {
		return len(msgs) > 0 && msgs[0].Role == ai.RoleSystem && strings.Contains(msgs[0].Content, substr)
	})
}

func TestParseElements(t *testing.T) {
	text := `Title: Hearts of Stone
Genre: Medieval Romance Fantasy
Theme: Love
Tone: Poignant
Setting: The Kingdom of Eldoria
Characters:
Anna: a spy.
Boris: a king.`

	e := generator.ParseElements(text)
	assert.Equal(t, "Hearts of Stone", e.Title)
	assert.Equal(t, "Medieval Romance Fantasy", e.Genre)
	assert.Equal(t, "Love", e.Theme)
	assert.Equal(t, "Poignant", e.Tone)
	assert.Equal(t, "The Kingdom of Eldoria", e.Setting)
	assert.Equal(t, "Anna: a spy. Boris: a king.", e.Characters)
}

func TestParseElements_CharactersLimit(t *testing.T) {
	long := strings.Repeat("x", 190)
	e := generator.ParseElements("Characters: " + long + "\nshort one that does not fit")
	assert.Equal(t, long, e.Characters, "строка, превышающая 200 символов, отбрасывается")
}

func TestParseElements_Garbage(t *testing.T) {
	e := generator.ParseElements("I cannot help with that.")
	assert.Equal(t, models.Elements{}, e)
}

func TestStages(t *testing.T) {
	first, _ := generator.Stages(1)
	second, _ := generator.Stages(7)
	fourth, _ := generator.Stages(19)
	last, _ := generator.Stages(25)

	tests := []struct {
		name      string
		n         int
		cur, next string
	}{
		{"first chapter", 1, first, first},
		{"end of exposition", 6, first, second},
		{"second stage", 7, second, second},
		{"before ending", 24, fourth, last},
		{"ending", 25, last, last},
		{"last regular chapter", 30, last, last},
		{"past the ending", 31, last, last},
		{"multiple of six past the ending", 36, last, last},
		{"far past the ending", 100, last, last},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, next := generator.Stages(tt.n)
			assert.Equal(t, tt.cur, cur)
			assert.Equal(t, tt.next, next)
		})
	}

	assert.Contains(t, first, "Expositions")
	assert.Contains(t, last, "endings")
}

func TestStripRecommendedPaths(t *testing.T) {
	in := "James opens the door.\n\nRecommended summary paths:\n1. Run\n2. Hide"
	assert.Equal(t, "James opens the door.", generator.StripRecommendedPaths(in))
	assert.Equal(t, "plain", generator.StripRecommendedPaths("  plain \n"))
}

func TestParseRecommendations(t *testing.T) {
	text := `Title: Orphan title
Title: The map
Description: James finds a map.
Some noise
Title: The letter
Description: A letter arrives.
Title: The duel
Description: Blackwood challenges James.
Title: Fourth
Description: Ignored.`

	recs := generator.ParseRecommendations(text)
	require.Len(t, recs, 3)
	assert.Equal(t, models.Recommendation{Title: "The map", Description: "James finds a map."}, recs[0])
	assert.Equal(t, "The letter", recs[1].Title)
	assert.Equal(t, "The duel", recs[2].Title)

	assert.Empty(t, generator.ParseRecommendations("nothing useful"))
}

func TestMemoryWindow(t *testing.T) {
	chapter := strings.Repeat("a", 40) // ~10 токенов при оценке 4 символа/токен
	chapters := []string{"one " + chapter, "two " + chapter, "three " + chapter}

	window := generator.MemoryWindow(chapters, nil, 25)
	require.Len(t, window, 2)
	assert.True(t, strings.HasPrefix(window[0], "two"))
	assert.True(t, strings.HasPrefix(window[1], "three"))

	assert.Len(t, generator.MemoryWindow(chapters, nil, 0), 3)
	assert.Nil(t, generator.MemoryWindow(nil, nil, 10))
}

func TestMemoryWindow_NewestChapterOverBudget(t *testing.T) {
	chapters := []string{"old", "newest " + strings.Repeat("b", 40)}

	window := generator.MemoryWindow(chapters, nil, 2)
	require.Len(t, window, 1)
	assert.Equal(t, "bbbbbbbb", window[0], "от самой новой главы остается ее конец")

	counter := ai.NewTokenCounter("gpt-4o-mini")
	long := strings.Repeat("The dragon sleeps under the mountain. ", 50)
	window = generator.MemoryWindow([]string{"old", long}, counter, 20)
	require.Len(t, window, 1)
	assert.LessOrEqual(t, counter.Count(window[0]), 24)
	assert.True(t, strings.HasSuffix(long, window[0]))
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "American English", generator.LanguageName("EN-US"))
	assert.Equal(t, "Korean", generator.LanguageName("ko"))
	assert.Equal(t, "!!", generator.LanguageName("!!"))
}

func TestTranslate_KoreanPassthrough(t *testing.T) {
	g, client := newTestGenerator(t)

	assert.Equal(t, "안녕", g.Translate(context.Background(), 1, "안녕", "korean"))
	assert.Equal(t, "안녕", g.Translate(context.Background(), 1, "안녕", "KOREAN"))
	client.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTranslate_Success(t *testing.T) {
	g, client := newTestGenerator(t)

	client.On("Chat", mock.Anything, "7", mock.MatchedBy(func(msgs []ai.Message) bool {
		return len(msgs) == 1 && msgs[0].Content == "Translate the following text to American English: 안녕"
	}), mock.Anything).Return("  Hello \n", ai.UsageInfo{}, nil).Once()

	assert.Equal(t, "Hello", g.Translate(context.Background(), 7, "안녕", "EN-US"))
}

func TestTranslate_FallbackAfterRetries(t *testing.T) {
	g, client := newTestGenerator(t)

	client.On("Chat", mock.Anything, "1", mock.Anything, mock.Anything).
		Return("", ai.UsageInfo{}, errors.New("upstream down")).Times(3)

	assert.Equal(t, "original", g.Translate(context.Background(), 1, "original", "EN-US"))
	client.AssertNumberOfCalls(t, "Chat", 3)
}

func TestTranslate_EmptyResultRetried(t *testing.T) {
	g, client := newTestGenerator(t)

	client.On("Chat", mock.Anything, "1", mock.Anything, mock.Anything).Return("   ", ai.UsageInfo{}, nil).Once()
	client.On("Chat", mock.Anything, "1", mock.Anything, mock.Anything).Return("Bonjour", ai.UsageInfo{}, nil).Once()

	assert.Equal(t, "Bonjour", g.Translate(context.Background(), 1, "Hello", "fr"))
}

func TestGenerateElements(t *testing.T) {
	g, client := newTestGenerator(t)

	answer := "Title: Night Train\nGenre: Thriller\nTheme: Trust\nTone: Dark\nSetting: Orient Express\nCharacters: Mara: a courier."
	client.On("Chat", mock.Anything, "3", mock.MatchedBy(func(msgs []ai.Message) bool {
		// system + пример (2) + запрос
		return len(msgs) == 4 && msgs[3].Content == "a train mystery" && strings.Contains(msgs[2].Content, "Hearts of Stone")
	}), mock.MatchedBy(func(p ai.GenerationParams) bool {
		return p.Temperature != nil && *p.Temperature == 0.8
	})).Return(answer, ai.UsageInfo{}, nil).Once()

	e, err := g.GenerateElements(context.Background(), 3, "a train mystery", "EN-US")
	require.NoError(t, err)
	assert.Equal(t, "Night Train", e.Title)
	assert.Equal(t, "Mara: a courier.", e.Characters)
}

func TestGenerateElements_KoreanExample(t *testing.T) {
	g, client := newTestGenerator(t)

	client.On("Chat", mock.Anything, "3", mock.MatchedBy(func(msgs []ai.Message) bool {
		return strings.Contains(msgs[2].Content, "돌의 마음")
	}), mock.Anything).Return("Title: 별", ai.UsageInfo{}, nil).Once()

	e, err := g.GenerateElements(context.Background(), 3, "별 이야기", "korean")
	require.NoError(t, err)
	assert.Equal(t, "별", e.Title)
}

func TestGenerateElements_Failure(t *testing.T) {
	g, client := newTestGenerator(t)

	client.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", ai.UsageInfo{}, errors.New("boom")).Times(3)

	_, err := g.GenerateElements(context.Background(), 1, "prompt", "EN-US")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrGenerationFailed)
}

func TestGeneratePrologue(t *testing.T) {
	g, client := newTestGenerator(t)

	client.On("Chat", mock.Anything, "2", systemContains("only the prologue"), mock.MatchedBy(func(p ai.GenerationParams) bool {
		return p.MaxTokens != nil && *p.MaxTokens == 500
	})).Return("\nPrologue:\nThe night was cold.\n", ai.UsageInfo{}, nil).Once()

	text, err := g.GeneratePrologue(context.Background(), 2, models.Elements{Title: "Cold"})
	require.NoError(t, err)
	assert.Equal(t, "Prologue:\nThe night was cold.", text)
}

func TestGenerateSummary_WithRecommendations(t *testing.T) {
	g, client := newTestGenerator(t)

	client.On("Chat", mock.Anything, "5", systemContains("Write a concise, character-focused summary"), mock.Anything).
		Return("Mara boards the train.\nRecommended summary paths:\n- jump", ai.UsageInfo{}, nil).Once()
	client.On("Chat", mock.Anything, "5", mock.MatchedBy(func(msgs []ai.Message) bool {
		last := msgs[len(msgs)-1]
		return strings.Contains(msgs[0].Content, "three compelling recommendations") &&
			strings.Contains(msgs[0].Content, "Development") &&
			strings.Contains(last.Content, "Recommended summary paths")
	}), mock.Anything).
		Return("Title: Jump\nDescription: Mara jumps off.", ai.UsageInfo{}, nil).Once()

	res, err := g.GenerateSummary(context.Background(), 5, generator.SummaryInput{
		ChapterNum: 6,
		Prompt:     "Mara runs",
		Elements:   models.Elements{Title: "Night Train"},
		Prologue:   "Prologue",
		History:    []string{"ch1", "ch2"},
		Language:   "korean",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mara boards the train.", res.Summary)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "Jump", res.Recommendations[0].Title)
}

func TestGenerateSummary_HistoryInPrompt(t *testing.T) {
	g, client := newTestGenerator(t)

	client.On("Chat", mock.Anything, "5", mock.MatchedBy(func(msgs []ai.Message) bool {
		// system + 4 примера (8) + 2 главы истории + запрос
		if len(msgs) != 12 || !strings.Contains(msgs[0].Content, "character-focused") {
			return false
		}
		return msgs[9].Role == ai.RoleAssistant && msgs[9].Content == "first" &&
			msgs[10].Content == "second" && strings.Contains(msgs[11].Content, "Previous Story: second")
	}), mock.Anything).Return("Next.", ai.UsageInfo{}, nil).Once()

	res, err := g.GenerateSummary(context.Background(), 5, generator.SummaryInput{
		ChapterNum: 30,
		Prompt:     "go on",
		History:    []string{"first", "second"},
		Language:   "korean",
	})
	require.NoError(t, err)
	assert.Equal(t, "Next.", res.Summary)
	assert.Nil(t, res.Recommendations, "после 29-й главы рекомендаций нет")
}

func TestGenerateSummary_RecommendationsExhausted(t *testing.T) {
	g, client := newTestGenerator(t)

	client.On("Chat", mock.Anything, "5", systemContains("character-focused"), mock.Anything).
		Return("Story.", ai.UsageInfo{}, nil).Once()
	client.On("Chat", mock.Anything, "5", systemContains("three compelling recommendations"), mock.Anything).
		Return("no structure here", ai.UsageInfo{}, nil).Times(3)

	res, err := g.GenerateSummary(context.Background(), 5, generator.SummaryInput{ChapterNum: 1, Prompt: "p", Language: "korean"})
	require.NoError(t, err)
	assert.Equal(t, "Story.", res.Summary)
	assert.Nil(t, res.Recommendations)
}

func TestRetryPolicy_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := generator.RetryPolicy{Attempts: 3}.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("temporary")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := generator.RetryPolicy{Attempts: 3}.Do(ctx, func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
