// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
Package types 提供 RoundTable 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 termination、participant、
groupchat、sink 等上层模块提供统一的类型契约，避免循环依赖。

# 核心类型

  - Message           - 一次发言（Speaker、Content、Sequence、RunID）
  - History           - 单次运行内只追加的消息序列，仅由调度器写入
  - View              - History 的只读视图，交给参与者与 Sink
  - RunResult         - 运行结束时的历史快照与 StopReason
  - StopReason        - TerminatedByCondition / Cancelled / Error
  - Error / ErrorCode - 结构化错误体系，含 Retryable、Participant 标记
  - ParticipantError  - 参与者发言失败，携带参与者名称与原始错误

# 主要能力

  - 序号保证：History.Append 统一分配从 0 开始、无空洞的递增序号
  - 错误工具链：IsRetryable / GetErrorCode / IsInvariantViolation
*/
package types
