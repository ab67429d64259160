package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	errx "github.com/vaanisewa-core/server/internal/core/error"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

// RedisOrderStore keeps pending gateway orders until they are paid, and the
// paid order history of every user.
type RedisOrderStore struct {
	rdb        redis.Cmdable
	pendingTTL time.Duration
}

func NewRedisOrderStore(rdb redis.Cmdable, pendingTTL time.Duration) *RedisOrderStore {
	return &RedisOrderStore{rdb: rdb, pendingTTL: pendingTTL}
}

func (s *RedisOrderStore) pendingKey(orderID string) string {
	return "vaanisewa:order:" + orderID
}

func (s *RedisOrderStore) historyKey(userID string) string {
	return "vaanisewa:orders:" + userID
}

func (s *RedisOrderStore) SavePending(ctx context.Context, order model.Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	key := s.pendingKey(order.ID)
	if err := s.rdb.Set(ctx, key, raw, s.pendingTTL).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store pending order")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisOrderStore) Pending(ctx context.Context, orderID string) (model.Order, error) {
	key := s.pendingKey(orderID)
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Order{}, errx.NotFound(model.ErrOrderNotFound, "order not found or expired")
	}
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to load pending order")
		return model.Order{}, errx.WrapRedis(err)
	}
	var o model.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return model.Order{}, fmt.Errorf("unmarshal order: %w", err)
	}
	return o, nil
}

// Record appends a paid order to the user's history and drops the pending entry.
func (s *RedisOrderStore) Record(ctx context.Context, rec model.OrderRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal order record: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.historyKey(rec.UserID), raw)
		pipe.Del(ctx, s.pendingKey(rec.OrderID))
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("orderID", rec.OrderID).Msg("failed to record paid order")
		return errx.WrapRedis(err)
	}
	return nil
}

// List returns the user's paid orders, newest first.
func (s *RedisOrderStore) List(ctx context.Context, userID string) ([]model.OrderRecord, error) {
	key := s.historyKey(userID)
	rows, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("failed to list orders")
		return nil, errx.WrapRedis(err)
	}
	out := make([]model.OrderRecord, 0, len(rows))
	for _, row := range rows {
		var rec model.OrderRecord
		if err := json.Unmarshal([]byte(row), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal order record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
