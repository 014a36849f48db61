package push

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (BatchResult, error) {
	args := m.Called(ctx, tokens, title, body, data)
	return args.Get(0).(BatchResult), args.Error(1)
}
