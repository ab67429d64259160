package flows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaanisewa-core/server/internal/assistant/model"
)

func TestSignupHappyPath(t *testing.T) {
	fx := newFixture(t)
	flow := NewSignupFlow(fx.users)

	res := say(t, flow, flow.InitialState(), "", model.TurnContext{})
	assert.Equal(t, StepCollectFullName, step(t, res))
	assert.True(t, res.RequiresInput)

	res = converse(t, flow, res.State, model.TurnContext{},
		"my name is asha rao",
		"correct",
		"asha at example dot com",
		"yes",
		"secret123",
		"correct",
	)
	assert.Equal(t, StepSubmit, step(t, res))
	assert.False(t, res.RequiresInput)
	assert.Equal(t, "Creating account for asha@example.com. Please wait.", res.Response)

	st := res.State.(AuthState)
	assert.Equal(t, "Asha Rao", st.FullName)
	assert.Empty(t, st.TempPassword)

	res = say(t, flow, st, "", model.TurnContext{})
	assert.True(t, res.Completed)
	assert.Equal(t, model.ActionAuthenticated, res.Action)
	require.NotNil(t, res.User)
	assert.Equal(t, "asha@example.com", res.User.Email)
	assert.Contains(t, res.Response, "Welcome, Asha Rao")
}

func TestSignupRejectsInvalidName(t *testing.T) {
	fx := newFixture(t)
	flow := NewSignupFlow(fx.users)
	st := AuthState{Step: StepCollectFullName}

	res := say(t, flow, st, "a", model.TurnContext{})
	assert.True(t, res.RequiresInput)
	assert.Equal(t, StepCollectFullName, step(t, res))
	assert.Empty(t, res.State.(AuthState).FullName)
	assert.Contains(t, res.Response, "valid name")
}

func TestAuthRepeatRewindsToCollect(t *testing.T) {
	fx := newFixture(t)
	flow := NewSignupFlow(fx.users)

	cases := []struct {
		at   model.Step
		want model.Step
	}{
		{StepConfirmFullName, StepCollectFullName},
		{StepConfirmEmail, StepCollectEmail},
		{StepConfirmPassword, StepCollectPassword},
	}
	for _, tc := range cases {
		t.Run(string(tc.at), func(t *testing.T) {
			st := AuthState{Step: tc.at, TempFullName: "Held", TempEmail: "held@example.com", TempPassword: "heldpass"}
			res := say(t, flow, st, "repeat", model.TurnContext{})
			assert.Equal(t, tc.want, step(t, res))
		})
	}
}

func TestAuthUnknownConfirmationKeepsStep(t *testing.T) {
	fx := newFixture(t)
	flow := NewLoginFlow(fx.users)
	st := AuthState{Step: StepConfirmEmail, TempEmail: "asha@example.com"}

	res := say(t, flow, st, "maybe later", model.TurnContext{})
	assert.Equal(t, StepConfirmEmail, step(t, res))
	assert.Empty(t, res.State.(AuthState).Email)
}

func TestAuthRejectsInvalidEmailAndPassword(t *testing.T) {
	fx := newFixture(t)
	flow := NewLoginFlow(fx.users)

	res := say(t, flow, AuthState{Step: StepCollectEmail}, "not an email", model.TurnContext{})
	assert.Equal(t, StepCollectEmail, step(t, res))
	assert.Equal(t, "That doesn't sound like a valid email address. Please say your email again.", res.Response)

	res = say(t, flow, AuthState{Step: StepCollectPassword}, "abc", model.TurnContext{})
	assert.Equal(t, StepCollectPassword, step(t, res))
}

func TestSignupDuplicateSuggestsLogin(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.users.Signup(context.Background(), "Asha Rao", "asha@example.com", "secret123")
	require.NoError(t, err)

	flow := NewSignupFlow(fx.users)
	st := AuthState{Step: StepSubmit, FullName: "Asha Rao", Email: "asha@example.com", Password: "secret123"}
	res := say(t, flow, st, "", model.TurnContext{})
	assert.True(t, res.Completed)
	assert.Equal(t, model.ActionNone, res.Action)
	assert.Equal(t, "This email already exists. Would you like to log in instead? Say log in to continue.", res.Response)
}

func TestLoginSubmit(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.users.Signup(context.Background(), "Asha Rao", "asha@example.com", "secret123")
	require.NoError(t, err)
	flow := NewLoginFlow(fx.users)

	res := say(t, flow, AuthState{Step: StepSubmit, Email: "asha@example.com", Password: "wrongpass"}, "", model.TurnContext{})
	assert.True(t, res.Completed)
	assert.Nil(t, res.User)
	assert.Contains(t, res.Response, "invalid email or password")

	res = say(t, flow, AuthState{Step: StepSubmit, Email: "asha@example.com", Password: "secret123"}, "", model.TurnContext{})
	assert.Equal(t, model.ActionAuthenticated, res.Action)
	assert.Equal(t, "Login successful! Welcome back, Asha Rao. Say browse books to continue.", res.Response)
}

func TestAuthUnknownStepEndsFlow(t *testing.T) {
	fx := newFixture(t)
	res := say(t, NewLoginFlow(fx.users), AuthState{Step: "bogus"}, "", model.TurnContext{})
	assert.True(t, res.Completed)
	assert.Equal(t, "Something went wrong. Please say log in to start over.", res.Response)
}

func TestAuthRejectsForeignState(t *testing.T) {
	fx := newFixture(t)
	_, err := NewLoginFlow(fx.users).Handle(context.Background(), "", CartState{}, model.TurnContext{})
	assert.Error(t, err)
}
