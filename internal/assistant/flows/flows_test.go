package flows

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/vaanisewa-core/server/internal/assistant/catalog"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/navigation"
	"github.com/vaanisewa-core/server/internal/assistant/payments"
	"github.com/vaanisewa-core/server/internal/assistant/repo"
	"golang.org/x/crypto/bcrypt"
)

type handler interface {
	Handle(ctx context.Context, input string, state model.FlowState, tc model.TurnContext) (model.FlowResult, error)
}

type fixture struct {
	mr      *miniredis.Miniredis
	cart    *repo.RedisCartStore
	users   *repo.RedisUserStore
	gateway *payments.Gateway
	catalog *catalog.Catalog
	links   navigation.Links
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &fixture{
		mr:      mr,
		cart:    repo.NewRedisCartStore(rdb),
		users:   repo.NewRedisUserStore(rdb, bcrypt.MinCost),
		gateway: payments.NewGateway(repo.NewRedisOrderStore(rdb, time.Hour), model.PaymentConfig{KeyID: "key_test", KeySecret: "secret"}),
		catalog: catalog.New(catalog.DefaultBooks),
		links:   navigation.New("https://shop.test/"),
	}
}

// say runs one turn and returns the result, failing the test on a flow error.
func say(t *testing.T, f handler, state model.FlowState, input string, tc model.TurnContext) model.FlowResult {
	t.Helper()
	res, err := f.Handle(context.Background(), input, state, tc)
	require.NoError(t, err)
	return res
}

// converse feeds inputs in order, carrying state forward, and returns the last result.
func converse(t *testing.T, f handler, state model.FlowState, tc model.TurnContext, inputs ...string) model.FlowResult {
	t.Helper()
	var res model.FlowResult
	for _, in := range inputs {
		res = say(t, f, state, in, tc)
		if res.State != nil {
			state = res.State
		}
	}
	return res
}

func step(t *testing.T, res model.FlowResult) model.Step {
	t.Helper()
	require.NotNil(t, res.State)
	return res.State.CurrentStep()
}

func loggedIn(id string) model.TurnContext {
	return model.TurnContext{User: &model.User{ID: id, FullName: "Asha Rao", Email: "asha@example.com"}}
}
