// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
包 groupchat 实现轮询（round-robin）群聊调度器。

# 概述

RoundRobin 持有一组有序参与者、一条共享历史与一个终止条件，
按 i mod N 的固定顺序逐轮调用参与者，每条消息依次追加到历史、
同步投递给所有 Sink，再交给终止条件判定。

# 状态机

	Idle → Running → {Completed, Cancelled, Failed}

  - Completed：终止条件在最近一条消息后触发
  - Cancelled：每轮开始前检测到 ctx 已取消（不是错误）
  - Failed：参与者或 Sink 返回错误，历史保留到最后一条成功消息

终态之后可以再次 Run，历史与轮转下标重新开始，未触发的终止条件在开始时
自动 Reset（计数与计时从零开始）；已触发的终止条件必须先 Reset，否则返回
INVARIANT_VIOLATION。

# 流式消费

RunStream 返回无缓冲 channel，逐条推送消息，最后一个 Event 携带
RunResult。调度器在消费者接收之前不会开始下一轮。

# 可观测性

每次运行一个 groupchat.run span，每轮一个 groupchat.turn span；
可选 Prometheus Collector 与 OTel Meter 记录轮次与耗时。
*/
package groupchat
