// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数和断言
//
// 使用方法:
//
//	testutil.AssertMessagesEqual(t, expected, actual)
//	testutil.AssertSpeakers(t, result.Messages, "user", "alice", "bob")
// =============================================================================
package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/BaSui01/roundtable/types"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🔍 断言辅助
// =============================================================================

// AssertMessagesEqual 断言两个消息切片的 speaker/content/sequence 相等
func AssertMessagesEqual(t *testing.T, expected, actual []types.Message) {
	t.Helper()

	if len(expected) != len(actual) {
		t.Errorf("message count mismatch: expected %d, got %d", len(expected), len(actual))
		return
	}

	for i := range expected {
		if expected[i].Speaker != actual[i].Speaker {
			t.Errorf("message[%d] speaker mismatch: expected %q, got %q", i, expected[i].Speaker, actual[i].Speaker)
		}
		if expected[i].Content != actual[i].Content {
			t.Errorf("message[%d] content mismatch: expected %q, got %q", i, expected[i].Content, actual[i].Content)
		}
		if expected[i].Sequence != actual[i].Sequence {
			t.Errorf("message[%d] sequence mismatch: expected %d, got %d", i, expected[i].Sequence, actual[i].Sequence)
		}
	}
}

// AssertSpeakers 断言消息的发言者顺序
func AssertSpeakers(t *testing.T, msgs []types.Message, speakers ...string) {
	t.Helper()

	if len(msgs) != len(speakers) {
		t.Errorf("speaker count mismatch: expected %d, got %d", len(speakers), len(msgs))
		return
	}
	for i, m := range msgs {
		if m.Speaker != speakers[i] {
			t.Errorf("message[%d] speaker mismatch: expected %q, got %q", i, speakers[i], m.Speaker)
		}
	}
}

// AssertSequential 断言序号从 0 开始连续递增
func AssertSequential(t *testing.T, msgs []types.Message) {
	t.Helper()

	for i, m := range msgs {
		if m.Sequence != i {
			t.Errorf("message[%d] has sequence %d", i, m.Sequence)
		}
	}
}

// AssertJSONEqual 断言两个值的 JSON 表示相等
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual: %s", expectedJSON, actualJSON)
	}
}

// AssertEventuallyTrue 断言条件最终为真
func AssertEventuallyTrue(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	if !WaitFor(condition, timeout) {
		t.Errorf("condition not met within %v", timeout)
	}
}

// =============================================================================
// ⏳ 异步辅助
// =============================================================================

// WaitFor 轮询等待条件满足
func WaitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}

// WaitForChannel 等待 channel 返回值或超时
func WaitForChannel[T any](ch <-chan T, timeout time.Duration) (T, bool) {
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(timeout):
		var zero T
		return zero, false
	}
}

// =============================================================================
// 📦 数据辅助
// =============================================================================

// MustJSON 序列化为 JSON，失败则 panic
func MustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Speakers 提取消息的发言者
func Speakers(msgs []types.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Speaker
	}
	return out
}

// Contents 提取消息内容
func Contents(msgs []types.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}
