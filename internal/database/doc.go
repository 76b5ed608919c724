// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
包 database 为转录归档提供基于 GORM 的数据库连接与连接池管理。

# 概述

Open 按 config.DatabaseConfig 选择方言（postgres、mysql、纯 Go 的
sqlite 与 cgo 的 sqlite3）并打开连接。PoolManager 封装连接池配置、
后台健康检查与事务重试，健康检查结果可上报到 metrics.Collector。

# 核心类型

  - PoolManager：连接池管理器，提供 DB()、Ping()、Stats()、Close()。
  - PoolConfig：连接池配置，可由 PoolConfigFrom 从应用配置构建。
  - TransactionFunc：事务回调函数类型。

# 主要能力

  - 事务管理：WithTransaction 单次执行，WithTransactionRetry 针对
    死锁、序列化失败、SQLite 忙等场景指数退避重试。
  - 指标上报：WithMetrics 后健康检查写入连接数 Gauge，事务写入耗时。
*/
package database
