/*
包 streamstore 管理 Redis 连接，为每次运行维护一个 Redis Stream
（key 为 前缀 + run_id），供 sink.RedisStream 发布消息、CLI 回放转录。

  - Append：XADD，配置 MaxLen 时近似裁剪
  - Range：XRANGE 按写入顺序读回
  - Expire / Delete：运行结束后的保留策略
  - 后台健康检查，Close 后退出
*/
package streamstore
