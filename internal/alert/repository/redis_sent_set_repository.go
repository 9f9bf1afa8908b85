package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reeeportnewsss/nww/pkg/logger"
)

type redisSentSetRepository struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
	log    *logger.Logger
	set    memberSet
}

// NewRedisSentSetRepository creates a sent set kept in the Redis set at key. A positive ttl
// refreshes the key expiry on every addition.
func NewRedisSentSetRepository(client redis.Cmdable, key string, ttl time.Duration, log *logger.Logger) SentSetRepository {
	return &redisSentSetRepository{
		client: client,
		key:    key,
		ttl:    ttl,
		log:    log,
		set:    newMemberSet(),
	}
}

func (r *redisSentSetRepository) Load(ctx context.Context) {
	r.set = newMemberSet()

	members, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		r.log.WarnContext(ctx, "Failed to load sent set from redis, starting empty", logger.ErrorField(err), logger.StringField("key", r.key))
		return
	}
	// SMEMBERS has no order
	sort.Strings(members)

	r.set = newMemberSet(members...)
	r.log.InfoContext(ctx, "Loaded sent set", logger.StringField("key", r.key), logger.IntField("count", r.set.len()))
}

func (r *redisSentSetRepository) Contains(identity string) bool {
	return r.set.contains(identity)
}

func (r *redisSentSetRepository) AddAndPersist(ctx context.Context, identity string) error {
	r.set.add(identity)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, r.key, identity)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to add identity to redis sent set", logger.ErrorField(err), logger.StringField("key", r.key))
		return fmt.Errorf("%w: %s: %v", ErrPersist, r.key, err)
	}
	return nil
}

func (r *redisSentSetRepository) Len() int {
	return r.set.len()
}

func (r *redisSentSetRepository) Members() []string {
	return r.set.list()
}
