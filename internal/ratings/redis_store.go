package ratings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"codeberg.org/codepair/server/codepair/codeblocks"
)

const (
	// codeblock:{id}:rating - hash with sum and count fields
	keyRating = "codeblock:%s:rating"

	fieldSum   = "sum"
	fieldCount = "count"
)

// keeps totals in a redis hash. the catalog is only consulted to reject
// unknown code blocks.
type RedisStore struct {
	client  *redis.Client
	catalog codeblocks.Store
}

func NewRedisStore(client *redis.Client, catalog codeblocks.Store) *RedisStore {
	return &RedisStore{client: client, catalog: catalog}
}

func (s *RedisStore) Add(ctx context.Context, codeBlockID string, value int) (Totals, error) {
	if _, err := s.catalog.Get(ctx, codeBlockID); err != nil {
		return Totals{}, err
	}

	key := fmt.Sprintf(keyRating, codeBlockID)

	var sumCmd, countCmd *redis.IntCmd

	// MULTI/EXEC so readers never see the sum without the matching count
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		sumCmd = pipe.HIncrBy(ctx, key, fieldSum, int64(value))
		countCmd = pipe.HIncrBy(ctx, key, fieldCount, 1)
		return nil
	})
	if err != nil {
		return Totals{}, fmt.Errorf("failed to increment rating in redis: %w", err)
	}

	return Totals{Sum: int(sumCmd.Val()), Count: int(countCmd.Val())}, nil
}

func (s *RedisStore) Totals(ctx context.Context, codeBlockID string) (Totals, error) {
	if _, err := s.catalog.Get(ctx, codeBlockID); err != nil {
		return Totals{}, err
	}

	key := fmt.Sprintf(keyRating, codeBlockID)

	values, err := s.client.HMGet(ctx, key, fieldSum, fieldCount).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Totals{}, fmt.Errorf("failed to read rating from redis: %w", err)
	}

	var totals Totals

	if len(values) == 2 {
		totals.Sum = toInt(values[0])
		totals.Count = toInt(values[1])
	}

	return totals, nil
}

// HMGET yields nil for missing fields and strings otherwise
func toInt(v any) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}
