// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
Package termination 提供对话终止条件的封闭变体集合。

# 概述

终止条件是一个有状态谓词：调度器在每条新消息追加到历史之后、开始下一轮
之前调用 Evaluate 恰好一次。条件一旦触发便保持触发状态，直到显式 Reset。
带着已触发的条件开始新一轮运行属于调用方错误，由 groupchat 在运行前拒绝。

# 变体

  - TextMention  - 内容包含标记子串（区分大小写），可限定发言者
  - External     - 外部协程调用 Set 后，在下一条消息上触发
  - MaxTurns     - 产出消息数（不含种子消息）超过 n 时触发，即第 n+1 条
  - SourceMatch  - 指定发言者产出消息时触发
  - Timeout      - 自创建或 Reset 起经过的时间超过上限时触发
  - Func         - 自定义谓词
  - And / Or     - 组合子，子条件每条消息至多评估一次

Condition 接口是封闭的（含未导出方法），Kind 标签可用于穷举匹配；
需要扩展时使用 Func。
*/
package termination
