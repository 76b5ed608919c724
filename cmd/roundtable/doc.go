// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
Package main 提供 RoundTable 命令行程序入口。

# 概述

cmd/roundtable 从 YAML 配置组装轮询群聊并运行它，同时提供转录回放
与数据库迁移子命令。程序支持配置文件加载（环境变量 ROUNDTABLE_* 覆盖）、
结构化日志（zap）、Prometheus 指标端点与 OpenTelemetry 导出。

# 主要能力

  - 子命令：run（运行群聊）、transcript（列出/回放归档）、migrate（数据库迁移）、version
  - Sink 组合：控制台、日志，以及按配置启用的数据库转录与 Redis 消息流
  - 中断处理：第一次 Ctrl+C 在当前发言结束后停止，第二次立即取消
  - 退出码：0 正常终止，1 失败，130 被取消
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
