// Package config 提供 RoundTable 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量 的顺序叠加，
// 环境变量以 ROUNDTABLE_ 为前缀，按结构体 env tag 逐级拼接，
// 例如 ROUNDTABLE_CHAT_TERMINATION_MAX_TURNS。参与者列表只能通过 YAML 配置。
package config
