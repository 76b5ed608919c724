// MockSink 的消息流接收端测试模拟实现。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/roundtable/types"
)

// MockSink 记录收到的消息与结果，可在指定序号注入错误
type MockSink struct {
	mu sync.Mutex

	name    string
	failAt  int
	failErr error

	messages []types.Message
	results  []*types.RunResult
}

// NewMockSink 创建新的 MockSink
func NewMockSink(name string) *MockSink {
	return &MockSink{name: name, failAt: -1}
}

// WithErrorAt 在序号为 seq 的消息上返回 err
func (s *MockSink) WithErrorAt(seq int, err error) *MockSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAt = seq
	s.failErr = err
	return s
}

// Name 返回 sink 名称
func (s *MockSink) Name() string {
	return s.name
}

// OnMessage 记录消息
func (s *MockSink) OnMessage(_ context.Context, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Sequence == s.failAt {
		return s.failErr
	}
	s.messages = append(s.messages, msg)
	return nil
}

// OnComplete 记录结果
func (s *MockSink) OnComplete(_ context.Context, result *types.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

// Messages 返回收到的消息
func (s *MockSink) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Message(nil), s.messages...)
}

// Results 返回收到的运行结果
func (s *MockSink) Results() []*types.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.RunResult(nil), s.results...)
}
