package revalidate

import (
	"context"
	"encoding/json"
	"time"

	"smallbiznis-backoffice/pkg/logger"
	"smallbiznis-backoffice/pkg/rediskey"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("revalidate",
	fx.Provide(NewRedisInvalidator),
)

// Invalidator tells the views rendered from a path to refetch. Delivery is best
// effort; failures are logged and never reach the caller.
type Invalidator interface {
	Paths(ctx context.Context, paths ...string)
}

type Message struct {
	Paths []string  `json:"paths"`
	At    time.Time `json:"at"`
}

type redisInvalidator struct {
	rdb *redis.Client
}

func NewRedisInvalidator(rdb *redis.Client) Invalidator {
	return &redisInvalidator{rdb: rdb}
}

func (r *redisInvalidator) Paths(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}

	payload, err := json.Marshal(Message{Paths: paths, At: time.Now().UTC()})
	if err != nil {
		return
	}

	if err := r.rdb.Publish(ctx, rediskey.RevalidateChannel, payload).Err(); err != nil {
		logger.FromContext(ctx).Warn("failed to publish revalidation", zap.Strings("paths", paths), zap.Error(err))
	}
}

// Recorder collects paths in memory. Tests and single-process setups use it.
type Recorder struct {
	Published [][]string
}

func (r *Recorder) Paths(_ context.Context, paths ...string) {
	r.Published = append(r.Published, paths)
}

// All flattens every published path in publish order.
func (r *Recorder) All() []string {
	out := []string{}
	for _, p := range r.Published {
		out = append(out, p...)
	}
	return out
}
