package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	errx "github.com/vaanisewa-core/server/internal/core/error"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

const maxTxRetries = 5

var (
	quantityMessage = fmt.Sprintf("Quantity must be between %d and %d", model.MinQuantity, model.MaxQuantity)
	itemMessage     = "Item not found in cart"
)

// RedisCartStore keeps one JSON document per cart owner. Updates run inside
// WATCH transactions so concurrent sessions of the same user do not lose writes.
type RedisCartStore struct {
	rdb redis.UniversalClient
}

func NewRedisCartStore(rdb redis.UniversalClient) *RedisCartStore {
	return &RedisCartStore{rdb: rdb}
}

func (s *RedisCartStore) cartKey(owner string) string {
	return "vaanisewa:cart:" + owner
}

func (s *RedisCartStore) AddItem(ctx context.Context, owner string, book model.Book, quantity int) error {
	if !validQuantity(quantity) {
		return errx.Validation(model.ErrQuantityRange, quantityMessage)
	}
	return s.update(ctx, owner, func(items []model.CartItem) ([]model.CartItem, error) {
		for i := range items {
			if items[i].ID == book.ID {
				if !validQuantity(items[i].Quantity + quantity) {
					return nil, errx.Validation(model.ErrQuantityRange, quantityMessage)
				}
				items[i].Quantity += quantity
				return items, nil
			}
		}
		return append(items, model.CartItem{
			ID:       book.ID,
			Name:     book.Name,
			Author:   book.Author,
			Price:    book.Price,
			Quantity: quantity,
			Image:    book.Image,
		}), nil
	})
}

func (s *RedisCartStore) RemoveItem(ctx context.Context, owner, itemID string) error {
	return s.update(ctx, owner, func(items []model.CartItem) ([]model.CartItem, error) {
		for i := range items {
			if items[i].ID == itemID {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, errx.NotFound(model.ErrItemNotFound, itemMessage)
	})
}

func (s *RedisCartStore) UpdateQuantity(ctx context.Context, owner, itemID string, quantity int) error {
	if !validQuantity(quantity) {
		return errx.Validation(model.ErrQuantityRange, quantityMessage)
	}
	return s.update(ctx, owner, func(items []model.CartItem) ([]model.CartItem, error) {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Quantity = quantity
				return items, nil
			}
		}
		return nil, errx.NotFound(model.ErrItemNotFound, itemMessage)
	})
}

func (s *RedisCartStore) Clear(ctx context.Context, owner string) error {
	key := s.cartKey(owner)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to clear cart")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisCartStore) Summary(ctx context.Context, owner string) (model.CartSummary, error) {
	items, err := readCart(ctx, s.rdb, s.cartKey(owner))
	if err != nil {
		return model.CartSummary{}, err
	}
	return model.NewCartSummary(items), nil
}

func (s *RedisCartStore) update(ctx context.Context, owner string, fn func([]model.CartItem) ([]model.CartItem, error)) error {
	key := s.cartKey(owner)
	txf := func(tx *redis.Tx) error {
		items, err := readCart(ctx, tx, key)
		if err != nil {
			return err
		}
		if items, err = fn(items); err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(items) == 0 {
				pipe.Del(ctx, key)
				return nil
			}
			raw, err := json.Marshal(items)
			if err != nil {
				return fmt.Errorf("marshal cart: %w", err)
			}
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			logx.Debug().Str("key", key).Msg("cart changed concurrently, retrying")
			continue
		}
		var appErr *errx.AppError
		if err != nil && !errors.As(err, &appErr) {
			logx.Error().Err(err).Str("key", key).Msg("failed to update cart")
			return errx.WrapRedis(err)
		}
		return err
	}
	return errx.WrapRedis(redis.TxFailedErr)
}

func readCart(ctx context.Context, c redis.Cmdable, key string) ([]model.CartItem, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to read cart")
		return nil, errx.WrapRedis(err)
	}
	var items []model.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart %s: %w", key, err)
	}
	return items, nil
}

func validQuantity(q int) bool {
	return q >= model.MinQuantity && q <= model.MaxQuantity
}

var _ model.CartStore = (*RedisCartStore)(nil)
