package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/voice"
)

const (
	StepCollectFullName model.Step = "collect-fullname"
	StepConfirmFullName model.Step = "confirm-fullname"
	StepCollectEmail    model.Step = "collect-email"
	StepConfirmEmail    model.Step = "confirm-email"
	StepCollectPassword model.Step = "collect-password"
	StepConfirmPassword model.Step = "confirm-password"
	StepSubmit          model.Step = "submit"
)

// AuthState carries the fields collected by signup and login. Temp values
// hold what was heard until the user confirms it.
type AuthState struct {
	Step         model.Step
	FullName     string
	Email        string
	Password     string
	TempFullName string
	TempEmail    string
	TempPassword string
}

func (s AuthState) CurrentStep() model.Step { return s.Step }

func (s AuthState) WithStep(step model.Step) model.FlowState { return s.at(step) }

func (s AuthState) at(step model.Step) AuthState {
	s.Step = step
	return s
}

// AuthFlow collects credentials one field at a time, each read back for confirmation.
type AuthFlow struct {
	auth   model.AuthService
	signup bool
}

func NewSignupFlow(auth model.AuthService) *AuthFlow {
	return &AuthFlow{auth: auth, signup: true}
}

func NewLoginFlow(auth model.AuthService) *AuthFlow {
	return &AuthFlow{auth: auth}
}

func (f *AuthFlow) Name() model.FlowName {
	if f.signup {
		return model.FlowSignup
	}
	return model.FlowLogin
}

func (f *AuthFlow) InitialState() model.FlowState {
	return AuthState{Step: model.StepInit}
}

func (f *AuthFlow) Handle(ctx context.Context, input string, state model.FlowState, _ model.TurnContext) (model.FlowResult, error) {
	st, ok := state.(AuthState)
	if !ok {
		return model.FlowResult{}, unexpectedState(f.Name(), state)
	}

	switch {
	case st.Step == model.StepInit && f.signup:
		return ask("Let's create your account. Please tell me your full name.", st.at(StepCollectFullName)), nil
	case st.Step == model.StepInit:
		return ask("Let's log you in. Please tell me your email address.", st.at(StepCollectEmail)), nil
	case st.Step == StepCollectFullName && f.signup:
		return f.collectName(input, st), nil
	case st.Step == StepConfirmFullName && f.signup:
		return f.confirmName(input, st), nil
	case st.Step == StepCollectEmail:
		return f.collectEmail(input, st), nil
	case st.Step == StepConfirmEmail:
		return f.confirmEmail(input, st), nil
	case st.Step == StepCollectPassword:
		return f.collectPassword(input, st), nil
	case st.Step == StepConfirmPassword:
		return f.confirmPassword(input, st), nil
	case st.Step == StepSubmit:
		return f.submit(ctx, st), nil
	}

	if f.signup {
		return done("Something went wrong. Please say sign up to start over."), nil
	}
	return done("Something went wrong. Please say log in to start over."), nil
}

func (f *AuthFlow) collectName(input string, st AuthState) model.FlowResult {
	name := voice.ExtractName(input)
	if voice.ValidateName(name) != nil {
		return ask("I need a valid name with at least two letters. Please tell me your full name again.", st)
	}
	st.TempFullName = name
	return ask(fmt.Sprintf("I heard your name as %s. Say correct to confirm, or repeat to say it again.", name), st.at(StepConfirmFullName))
}

func (f *AuthFlow) confirmName(input string, st AuthState) model.FlowResult {
	switch voice.NormalizeConfirmation(input) {
	case voice.ConfirmationConfirm:
		st.FullName = st.TempFullName
		return ask("Great! Now, please tell me your email address.", st.at(StepCollectEmail))
	case voice.ConfirmationRepeat:
		return ask("No problem. Please tell me your full name again.", st.at(StepCollectFullName))
	default:
		return ask("I did not understand. Please say correct to confirm, or repeat to say your name again.", st)
	}
}

func (f *AuthFlow) collectEmail(input string, st AuthState) model.FlowResult {
	email := voice.CleanEmail(voice.ExtractEmail(input))
	if !voice.IsValidEmail(email) {
		if f.signup {
			return ask("That doesn't sound like a valid email address. Please say your email again, like john at example dot com.", st)
		}
		return ask("That doesn't sound like a valid email address. Please say your email again.", st)
	}
	st.TempEmail = email
	return ask(fmt.Sprintf("I heard %s. Say correct to confirm, or repeat to say it again.", email), st.at(StepConfirmEmail))
}

func (f *AuthFlow) confirmEmail(input string, st AuthState) model.FlowResult {
	switch voice.NormalizeConfirmation(input) {
	case voice.ConfirmationConfirm:
		st.Email = st.TempEmail
		if f.signup {
			return ask("Perfect! Now, please tell me your password. It must be at least 6 characters.", st.at(StepCollectPassword))
		}
		return ask("Great! Now, please tell me your password.", st.at(StepCollectPassword))
	case voice.ConfirmationRepeat:
		return ask("No problem. Please say your email address again.", st.at(StepCollectEmail))
	default:
		return ask("I did not understand. Please say correct to confirm, or repeat to say your email again.", st)
	}
}

func (f *AuthFlow) collectPassword(input string, st AuthState) model.FlowResult {
	password := strings.TrimSpace(input)
	if voice.ValidatePassword(password) != nil {
		return ask("Password must be at least 6 characters long. Please say your password again.", st)
	}
	st.TempPassword = password
	return ask("Password received. Say correct to confirm, or repeat to say it again.", st.at(StepConfirmPassword))
}

func (f *AuthFlow) confirmPassword(input string, st AuthState) model.FlowResult {
	switch voice.NormalizeConfirmation(input) {
	case voice.ConfirmationConfirm:
		st.Password = st.TempPassword
		st.TempPassword = ""
		if f.signup {
			return proceed(fmt.Sprintf("Creating account for %s. Please wait.", st.Email), st.at(StepSubmit))
		}
		return proceed(fmt.Sprintf("Logging in with %s. Please wait.", st.Email), st.at(StepSubmit))
	case voice.ConfirmationRepeat:
		return ask("No problem. Please say your password again.", st.at(StepCollectPassword))
	default:
		return ask("I did not understand. Please say correct to confirm, or repeat to say your password again.", st)
	}
}

func (f *AuthFlow) submit(ctx context.Context, st AuthState) model.FlowResult {
	if f.signup {
		user, err := f.auth.Signup(ctx, st.FullName, st.Email, st.Password)
		if err != nil {
			res := done(fmt.Sprintf("Sorry, %s. Please try again by saying sign up.", spoken(err)))
			if errors.Is(err, model.ErrUserExists) {
				res = done("This email already exists. Would you like to log in instead? Say log in to continue.")
			}
			res.Error = err.Error()
			return res
		}
		return model.FlowResult{
			Response:  fmt.Sprintf("Account created successfully! Welcome, %s. You are now logged in. Say browse books to continue.", user.FullName),
			Completed: true,
			Action:    model.ActionAuthenticated,
			User:      &user,
		}
	}

	user, err := f.auth.Login(ctx, st.Email, st.Password)
	if err != nil {
		res := done(fmt.Sprintf("Sorry, %s. Please try again by saying log in, or say sign up to create a new account.", spoken(err)))
		res.Error = err.Error()
		return res
	}
	return model.FlowResult{
		Response:  fmt.Sprintf("Login successful! Welcome back, %s. Say browse books to continue.", user.FullName),
		Completed: true,
		Action:    model.ActionAuthenticated,
		User:      &user,
	}
}
