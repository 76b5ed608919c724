// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
包 server 提供 Prometheus 指标端点的 HTTP 服务器生命周期管理。

# 概述

本包通过 Manager 封装 net/http.Server，统一管理监听、服务、
关闭与错误传播流程。roundtable run 在启用 metrics 时用它在
独立端口暴露 /metrics 与 /healthz，运行结束后优雅关闭。

# 核心类型

  - Manager：HTTP 服务器管理器，持有 http.Server、net.Listener
    与异步错误通道，提供 Start/Shutdown 生命周期方法。
  - Config：服务器配置，包含监听地址、读写超时、空闲超时
    与优雅关闭超时。
  - MetricsHandler：挂载 promhttp 的 /metrics 与 /healthz。
*/
package server
