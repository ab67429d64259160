package session

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

type startKey struct{}

// newTurnObserver logs the lifecycle of every node of the turn pipeline.
func newTurnObserver(sessionID string) callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackInput) context.Context {
			logx.Debug().Str("session_id", sessionID).Str("node", info.Name).Msg("node start")
			return context.WithValue(ctx, startKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackOutput) context.Context {
			ev := logx.Debug().Str("session_id", sessionID).Str("node", info.Name)
			if started, ok := ctx.Value(startKey{}).(time.Time); ok {
				ev = ev.Dur("took", time.Since(started))
			}
			ev.Msg("node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("session_id", sessionID).Str("node", info.Name).Msg("node failed")
			return ctx
		}).
		Build()
}
