// Copyright (c) RoundTable Authors.
// Licensed under the MIT License.

/*
包 sink 提供 groupchat.Sink 的常用实现。

  - Console：按 "---------- speaker ----------" 分块输出到终端，结束时打印摘要；
    ConsumeStream 驱动 RunStream 的 channel
  - Logger：每条消息一条 zap 日志
  - Recorder：内存记录，供测试和嵌入方读取
  - Fanout：用 errgroup 并发投递给多个 sink，全部完成后才返回
  - Transcript：经 GORM 写入 roundtable_runs / roundtable_messages，Load 读回
  - RedisStream：每次运行一个 Redis Stream，Read 读回

所有 sink 都按消息到达顺序同步处理，返回错误会让调度器以 Error 停止。
*/
package sink
