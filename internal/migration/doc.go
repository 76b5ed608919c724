// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
包 migration 管理转录归档（transcript）的数据库 Schema，基于
golang-migrate 实现，支持 PostgreSQL、MySQL 与 SQLite。

# Schema

  - roundtable_runs：每次运行一行，记录任务、参与者、停止原因、
    停止消息、错误信息、轮数与起止时间。
  - roundtable_messages：按 (run_id, seq) 主键保存每条消息，
    seq 0 为用户种子消息，删除运行时级联删除。

# 核心类型

  - Migrator / DefaultMigrator：Up/Down/Steps/Force/Version/Status/Info。
  - CLI：roundtable migrate 子命令的终端输出层，Run 负责分发。
  - NewMigratorFromConfig / NewMigratorFromDatabaseConfig：从应用配置创建，
    sqlite 与 sqlite3 两种驱动共用同一套 SQLite 迁移文件。

SQLite 迁移走 cgo 的 sqlite3 驱动，版本记录在 roundtable_schema_migrations 表。
*/
package migration
