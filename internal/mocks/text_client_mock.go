package mocks

import (
	"context"

	"novel-stella/internal/ai"

	"github.com/stretchr/testify/mock"
)

// MockTextClient is a mock type for the TextClient type
type MockTextClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, userID, systemPrompt, userInput, params
func (_m *MockTextClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params ai.GenerationParams) (string, ai.UsageInfo, error) {
	ret := _m.Called(ctx, userID, systemPrompt, userInput, params)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string, ai.GenerationParams) string); ok {
		r0 = rf(ctx, userID, systemPrompt, userInput, params)
	} else {
		r0 = ret.String(0)
	}

	var r1 ai.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(ai.UsageInfo)
	}

	return r0, r1, ret.Error(2)
}

// Chat provides a mock function with given fields: ctx, userID, messages, params
func (_m *MockTextClient) Chat(ctx context.Context, userID string, messages []ai.Message, params ai.GenerationParams) (string, ai.UsageInfo, error) {
	ret := _m.Called(ctx, userID, messages, params)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, []ai.Message, ai.GenerationParams) string); ok {
		r0 = rf(ctx, userID, messages, params)
	} else {
		r0 = ret.String(0)
	}

	var r1 ai.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(ai.UsageInfo)
	}

	return r0, r1, ret.Error(2)
}

// Model provides a mock function with given fields:
func (_m *MockTextClient) Model() string {
	ret := _m.Called()
	return ret.String(0)
}

// NewMockTextClient creates a new instance of MockTextClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockTextClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTextClient {
	m := &MockTextClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ ai.TextClient = (*MockTextClient)(nil)
