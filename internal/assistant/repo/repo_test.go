package repo

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	errx "github.com/vaanisewa-core/server/internal/core/error"
	"golang.org/x/crypto/bcrypt"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

var (
	godaan  = model.Book{ID: "1", Name: "Godaan", Author: "Premchand", Price: 350}
	malgudi = model.Book{ID: "6", Name: "Malgudi Days", Author: "R K Narayan", Price: 275}
)

func TestConversationRepository(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	repo := NewRedisConversationRepository(rdb, time.Hour, 3)

	for _, text := range []string{"one", "two", "three", "four"} {
		require.NoError(t, repo.AddMessage(ctx, "s1", schema.UserMessage(text)))
	}

	n, err := repo.GetMessageCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	h, err := repo.LoadHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, h.Messages, 3)
	assert.Equal(t, "two", h.Messages[0].Content)
	assert.Equal(t, schema.User, h.Messages[0].Role)
	assert.True(t, mr.TTL("vaanisewa:conversation:s1:turns") > 0)

	require.NoError(t, repo.ClearHistory(ctx, "s1"))
	h, err = repo.LoadHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
}

func TestCartStore(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	store := NewRedisCartStore(rdb)

	require.NoError(t, store.AddItem(ctx, "u1", godaan, 2))
	require.NoError(t, store.AddItem(ctx, "u1", malgudi, 1))
	require.NoError(t, store.AddItem(ctx, "u1", godaan, 1))

	s, err := store.Summary(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, s.Items, 2)
	assert.Equal(t, "1", s.Items[0].ID)
	assert.Equal(t, 3, s.Items[0].Quantity)
	assert.Equal(t, 4, s.ItemCount)
	assert.Equal(t, 1325.0, s.Total)

	guest, err := store.Summary(ctx, model.GuestCartOwner)
	require.NoError(t, err)
	assert.Empty(t, guest.Items)

	require.NoError(t, store.UpdateQuantity(ctx, "u1", "6", 4))
	require.NoError(t, store.RemoveItem(ctx, "u1", "1"))
	s, err = store.Summary(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, 4, s.Items[0].Quantity)

	require.NoError(t, store.Clear(ctx, "u1"))
	s, err = store.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, s.ItemCount)
}

func TestCartStoreRejects(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	store := NewRedisCartStore(rdb)

	for _, q := range []int{0, 11, -1} {
		err := store.AddItem(ctx, "u1", godaan, q)
		assert.ErrorIs(t, err, model.ErrQuantityRange, "quantity %d", q)
		assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err))
	}

	require.NoError(t, store.AddItem(ctx, "u1", godaan, 8))
	assert.ErrorIs(t, store.AddItem(ctx, "u1", godaan, 3), model.ErrQuantityRange)

	err := store.RemoveItem(ctx, "u1", "missing")
	assert.ErrorIs(t, err, model.ErrItemNotFound)
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))
	assert.ErrorIs(t, store.UpdateQuantity(ctx, "u1", "missing", 2), model.ErrItemNotFound)
	assert.ErrorIs(t, store.UpdateQuantity(ctx, "u1", "1", 11), model.ErrQuantityRange)
}

func TestUserStore(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	store := NewRedisUserStore(rdb, bcrypt.MinCost)

	u, err := store.Signup(ctx, "Priya Sharma", "Priya@Example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "priya@example.com", u.Email)

	_, err = store.Signup(ctx, "Priya Sharma", "priya@example.com", "another")
	assert.ErrorIs(t, err, model.ErrUserExists)
	assert.Equal(t, http.StatusConflict, errx.StatusOf(err))

	got, err := store.Login(ctx, "priya@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = store.Login(ctx, "priya@example.com", "wrong-password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.Equal(t, "invalid email or password", errx.PublicMessage(err))

	_, err = store.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = store.Signup(ctx, "P", "p@example.com", "secret1")
	assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err))
	_, err = store.Signup(ctx, "Pat Lee", "p@example.com", "123")
	assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err))
}

func TestOrderStore(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	store := NewRedisOrderStore(rdb, 30*time.Minute)

	order := model.Order{ID: "order_1", Amount: 62500, Currency: "INR", UserID: "u1"}
	require.NoError(t, store.SavePending(ctx, order))
	assert.True(t, mr.TTL("vaanisewa:order:order_1") > 0)

	got, err := store.Pending(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, order.Amount, got.Amount)

	_, err = store.Pending(ctx, "order_2")
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	require.NoError(t, store.Record(ctx, model.OrderRecord{OrderID: "order_1", UserID: "u1", Amount: 62500}))
	require.NoError(t, store.Record(ctx, model.OrderRecord{OrderID: "order_3", UserID: "u1", Amount: 100}))
	assert.False(t, mr.Exists("vaanisewa:order:order_1"))

	list, err := store.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "order_3", list[0].OrderID)

	empty, err := store.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
