// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
Package participant 定义对话参与者能力及其常用实现。

# 概述

参与者只有一个能力：给定到目前为止的完整历史（只读视图），产出下一条
消息。产出过程可能很慢（外部模型调用），也可能失败；失败由调度器原样
上报，不在调度层重试。

# 核心接口

  - Participant - Name + Produce(ctx, types.View)
  - ChatModel   - 模型调用接口，由外部协作方实现，供 Assistant 使用
  - TokenCounter - Token 计数接口，用于裁剪模型上下文

# 内置实现

  - Func       - 函数适配器
  - Scripted   - 按脚本依次回复，可设置延迟与循环，常用于测试与演示
  - Assistant  - 基于 ChatModel 的参与者，支持系统提示词、缓冲窗口与 Token 预算

# 装饰器

  - WithTimeout   - 单轮超时，超时即失败（即使内部实现不感知 ctx）
  - WithRetry     - 指数退避重试可重试错误
  - WithRateLimit - 基于令牌桶的调用限速
*/
package participant
