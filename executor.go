package client

import (
	"context"

	"github.com/meetnote/client/internal/shardqueue"
)

// executor runs chat sends, one FIFO lane per session id.
type executor interface {
	Submit(context.Context, string, shardqueue.Job) error
	Barrier(context.Context, string) error
	Stop()
}

// newDefaultExecutor constructs the shard executor. Sends are never retried.
func newDefaultExecutor() *shardqueue.ShardExecutor {
	cfg, err := shardqueue.LoadConfig()
	if err != nil {
		cfg = shardqueue.Config{}
	}
	cfg.MaxAttempts = 1
	return shardqueue.NewShardExecutor(cfg)
}
