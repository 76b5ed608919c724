// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的群聊运行指标采集能力，覆盖
运行、轮次、Sink 投递与数据库四个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
便于 Grafana 等工具进行可视化与告警。

# 主要能力

  - 运行指标：结束运行总数与耗时（按 stop_reason 分组）、
    进行中运行数 Gauge、每次运行的发言条数分布。
  - 轮次指标：参与者发言总数（按 participant/status 分组）与耗时。
  - Sink 指标：消息投递次数，按 sink/status 分组。
  - 数据库指标：活跃/空闲连接数 Gauge、查询耗时 Histogram。
*/
package metrics
