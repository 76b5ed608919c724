// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 RoundTable 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertMessagesEqual / AssertSpeakers / AssertSequential /
    AssertJSONEqual / AssertEventuallyTrue
  - 异步与数据工具: WaitFor / WaitForChannel / MustJSON / Speakers / Contents

# 子包

  - testutil/mocks: MockParticipant（调度器的参与者）、MockChatModel
    （Assistant 的模型后端）、MockSink，均支持 Builder 模式与错误注入
  - testutil/fixtures: 预置脚本、转录与任务样例

# 使用示例

	ctx := testutil.TestContext(t)
	alice := mocks.NewMockParticipant("alice").WithReplies("hi", "APPROVE")
	res, err := rr.Run(ctx, fixtures.Task)
	testutil.AssertSpeakers(t, res.Messages, "user", "alice")
*/
package testutil
