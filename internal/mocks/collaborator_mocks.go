package mocks

import (
	"context"

	"novel-stella/internal/ai"
	"novel-stella/internal/generator"
	"novel-stella/internal/mailer"
	"novel-stella/internal/models"
	"novel-stella/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockGenerator - мок генератора истории.
type MockGenerator struct {
	mock.Mock
}

var _ generator.Generator = (*MockGenerator)(nil)

func (m *MockGenerator) GenerateElements(ctx context.Context, userID int64, prompt, language string) (models.Elements, error) {
	args := m.Called(ctx, userID, prompt, language)
	el, _ := args.Get(0).(models.Elements)
	return el, args.Error(1)
}

func (m *MockGenerator) GeneratePrologue(ctx context.Context, userID int64, elements models.Elements) (string, error) {
	args := m.Called(ctx, userID, elements)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) GenerateSummary(ctx context.Context, userID int64, input generator.SummaryInput) (*generator.SummaryResult, error) {
	args := m.Called(ctx, userID, input)
	res, _ := args.Get(0).(*generator.SummaryResult)
	return res, args.Error(1)
}

func (m *MockGenerator) Translate(ctx context.Context, userID int64, text, language string) string {
	args := m.Called(ctx, userID, text, language)
	return args.String(0)
}

func (m *MockGenerator) TranslateElements(ctx context.Context, userID int64, elements models.Elements, language string) models.Elements {
	args := m.Called(ctx, userID, elements, language)
	el, _ := args.Get(0).(models.Elements)
	return el
}

// MockStorage - мок медиахранилища.
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

// URL без ожиданий возвращает "/media/" + key.
func (m *MockStorage) URL(key string) string {
	for _, c := range m.ExpectedCalls {
		if c.Method == "URL" {
			return m.Called(key).String(0)
		}
	}
	return "/media/" + key
}

type MockImageClient struct {
	mock.Mock
}

var _ ai.ImageClient = (*MockImageClient)(nil)

func (m *MockImageClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	args := m.Called(ctx, prompt)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// MockPublisher - мок очереди писем.
type MockPublisher struct {
	mock.Mock
}

var _ mailer.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
