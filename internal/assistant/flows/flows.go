// Package flows holds the step machines behind each conversational task.
// Every flow keeps its progress in a value-typed state struct and reports
// side effects to its host as actions on the returned FlowResult.
package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaanisewa-core/server/internal/assistant/model"
	errx "github.com/vaanisewa-core/server/internal/core/error"
)

// ask keeps the flow at st and waits for the user.
func ask(response string, st model.FlowState) model.FlowResult {
	return model.FlowResult{Response: response, State: st, RequiresInput: true}
}

// proceed moves to st without waiting for the user; the host continues the flow.
func proceed(response string, st model.FlowState) model.FlowResult {
	return model.FlowResult{Response: response, State: st}
}

func done(response string) model.FlowResult {
	return model.FlowResult{Response: response, Completed: true}
}

func unexpectedState(flow model.FlowName, state model.FlowState) error {
	return fmt.Errorf("%s: unexpected state %T", flow, state)
}

// spoken turns a collaborator error into something safe to read aloud.
func spoken(err error) string {
	var appErr *errx.AppError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "the request took too long"
	case errors.As(err, &appErr) && appErr.Message != "":
		return appErr.Message
	default:
		return "something went wrong"
	}
}
