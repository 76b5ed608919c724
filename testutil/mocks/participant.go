// MockParticipant 的调度器参与者测试模拟实现。
//
// 支持脚本回复、延迟、错误注入与调用记录。
package mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BaSui01/roundtable/types"
)

// ErrMockFailure 是 WithFailAfter 注入的默认错误
var ErrMockFailure = errors.New("mock participant: configured to fail")

// MockParticipant 是 participant.Participant 的模拟实现
type MockParticipant struct {
	mu sync.Mutex

	name    string
	speaker string
	replies []string
	err     error
	delay   time.Duration

	failAfter   int
	produceFunc func(ctx context.Context, history types.View) (types.Message, error)
	onCall      func(call int)

	calls     int
	histories [][]types.Message
}

// NewMockParticipant 创建新的 MockParticipant，默认回复 "<name> #<n>"
func NewMockParticipant(name string) *MockParticipant {
	return &MockParticipant{name: name, speaker: name, failAfter: -1}
}

// WithReplies 设置循环使用的回复内容
func (m *MockParticipant) WithReplies(replies ...string) *MockParticipant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = replies
	return m
}

// WithError 每次调用都返回 err
func (m *MockParticipant) WithError(err error) *MockParticipant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter 成功 n 次后返回 ErrMockFailure
func (m *MockParticipant) WithFailAfter(n int) *MockParticipant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithDelay 模拟外部调用延迟，期间响应 ctx 取消
func (m *MockParticipant) WithDelay(d time.Duration) *MockParticipant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithSpeaker 让返回消息使用另一个发言者（违反契约，用于测试）
func (m *MockParticipant) WithSpeaker(speaker string) *MockParticipant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speaker = speaker
	return m
}

// WithProduceFunc 设置自定义 Produce 函数
func (m *MockParticipant) WithProduceFunc(fn func(ctx context.Context, history types.View) (types.Message, error)) *MockParticipant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.produceFunc = fn
	return m
}

// WithOnCall 在每次调用开始时回调（call 从 1 开始）
func (m *MockParticipant) WithOnCall(fn func(call int)) *MockParticipant {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCall = fn
	return m
}

// Name 返回参与者名称
func (m *MockParticipant) Name() string {
	return m.name
}

// Produce 生成下一条消息
func (m *MockParticipant) Produce(ctx context.Context, history types.View) (types.Message, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.histories = append(m.histories, history.Messages())
	onCall, fn, delay := m.onCall, m.produceFunc, m.delay
	m.mu.Unlock()

	if onCall != nil {
		onCall(call)
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return types.Message{}, ctx.Err()
		case <-timer.C:
		}
	}

	if fn != nil {
		return fn(ctx, history)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return types.Message{}, m.err
	}
	if m.failAfter >= 0 && call > m.failAfter {
		return types.Message{}, ErrMockFailure
	}

	content := fmt.Sprintf("%s #%d", m.name, call)
	if len(m.replies) > 0 {
		content = m.replies[(call-1)%len(m.replies)]
	}
	return types.NewMessage(m.speaker, content), nil
}

// Calls 返回调用次数
func (m *MockParticipant) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Histories 返回每次调用看到的历史副本
func (m *MockParticipant) Histories() [][]types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]types.Message(nil), m.histories...)
}

// Reset 清空调用记录
func (m *MockParticipant) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.histories = nil
}
