// MockChatModel 的对话模型测试模拟实现。
package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/BaSui01/roundtable/participant"
)

// MockChatModel 是 participant.ChatModel 的模拟实现
type MockChatModel struct {
	mu sync.Mutex

	responses []string
	err       error
	failAfter int

	prompts [][]participant.ChatMessage
}

// NewMockChatModel 创建新的 MockChatModel
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{responses: []string{"Mock response"}, failAfter: -1}
}

// WithResponse 设置固定响应
func (m *MockChatModel) WithResponse(response string) *MockChatModel {
	return m.WithResponses(response)
}

// WithResponses 设置循环使用的响应
func (m *MockChatModel) WithResponses(responses ...string) *MockChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
	return m
}

// WithError 设置返回错误
func (m *MockChatModel) WithError(err error) *MockChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter 设置在第 N 次调用后失败
func (m *MockChatModel) WithFailAfter(n int) *MockChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// Complete 返回下一条预设响应并记录 prompt
func (m *MockChatModel) Complete(ctx context.Context, messages []participant.ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, append([]participant.ChatMessage(nil), messages...))
	call := len(m.prompts)

	if m.err != nil {
		return "", m.err
	}
	if m.failAfter >= 0 && call > m.failAfter {
		return "", errors.New("mock model: configured to fail after N calls")
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	return m.responses[(call-1)%len(m.responses)], nil
}

// Prompts 返回每次调用收到的 prompt
func (m *MockChatModel) Prompts() [][]participant.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]participant.ChatMessage(nil), m.prompts...)
}

// CallCount 返回调用次数
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
