package session

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	logx "github.com/vaanisewa-core/server/pkg/logger"
)

const (
	NodeRecordInput        = "record_input"
	NodeDispatchTranscript = "dispatch_transcript"
	NodeApplyPayment       = "apply_payment"
	NodeRecordReply        = "record_reply"

	maxRunSteps = 10
)

type InputKind string

const (
	KindTranscript InputKind = "transcript"
	KindPayment    InputKind = "payment"
)

type PaymentEvent struct {
	Status model.PaymentStatus
	Data   model.PaymentData
}

// TurnInput is one unit of work for a session: either something the user
// said or a payment widget callback.
type TurnInput struct {
	Kind       InputKind
	Transcript string
	Payment    *PaymentEvent
}

// turnState is the graph local state of a single invocation.
type turnState struct {
	SessionID string
	Kind      InputKind
	Started   time.Time
}

func buildPipeline(ctx context.Context, s *Session) (compose.Runnable[TurnInput, Reply], error) {
	g := compose.NewGraph[TurnInput, Reply](
		compose.WithGenLocalState(func(ctx context.Context) *turnState {
			return &turnState{}
		}),
	)

	if err := g.AddLambdaNode(NodeRecordInput,
		compose.InvokableLambda(s.recordInput),
		compose.WithStatePreHandler(func(ctx context.Context, in TurnInput, st *turnState) (TurnInput, error) {
			st.SessionID = s.ID
			st.Kind = in.Kind
			st.Started = time.Now()
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add %s: %w", NodeRecordInput, err)
	}

	if err := g.AddLambdaNode(NodeDispatchTranscript,
		compose.InvokableLambda(func(ctx context.Context, in TurnInput) (Reply, error) {
			return s.handleTranscript(ctx, in.Transcript), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add %s: %w", NodeDispatchTranscript, err)
	}

	if err := g.AddLambdaNode(NodeApplyPayment,
		compose.InvokableLambda(func(ctx context.Context, in TurnInput) (Reply, error) {
			if in.Payment == nil {
				return Reply{}, fmt.Errorf("payment input without event")
			}
			return s.handlePayment(ctx, *in.Payment), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add %s: %w", NodeApplyPayment, err)
	}

	if err := g.AddLambdaNode(NodeRecordReply,
		compose.InvokableLambda(s.recordReply),
		compose.WithStatePostHandler(func(ctx context.Context, out Reply, st *turnState) (Reply, error) {
			logx.Info().
				Str("session_id", st.SessionID).
				Str("kind", string(st.Kind)).
				Str("flow", string(out.Flow)).
				Str("step", string(out.Step)).
				Str("action", string(out.Action)).
				Dur("took", time.Since(st.Started)).
				Msg("turn handled")
			return out, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add %s: %w", NodeRecordReply, err)
	}

	edges := [][2]string{
		{compose.START, NodeRecordInput},
		{NodeDispatchTranscript, NodeRecordReply},
		{NodeApplyPayment, NodeRecordReply},
		{NodeRecordReply, compose.END},
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, fmt.Errorf("add edge %s -> %s: %w", e[0], e[1], err)
		}
	}

	kindBranch := compose.NewGraphBranch(
		func(ctx context.Context, in TurnInput) (string, error) {
			switch in.Kind {
			case KindTranscript:
				return NodeDispatchTranscript, nil
			case KindPayment:
				return NodeApplyPayment, nil
			default:
				return "", fmt.Errorf("unknown turn input kind %q", in.Kind)
			}
		},
		map[string]bool{
			NodeDispatchTranscript: true,
			NodeApplyPayment:       true,
		},
	)
	if err := g.AddBranch(NodeRecordInput, kindBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding input kind branch")
		return nil, fmt.Errorf("error adding input kind branch: %w", err)
	}

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps), compose.WithGraphName("vaanisewa_turn"))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling turn pipeline")
		return nil, fmt.Errorf("error compiling turn pipeline: %w", err)
	}
	return runnable, nil
}

// recordInput mirrors the incoming turn before it changes the dialogue, so
// the transcript carries the flow and step the input was said in.
func (s *Session) recordInput(ctx context.Context, in TurnInput) (TurnInput, error) {
	flow := s.manager.CurrentFlow()
	step := s.step()
	switch in.Kind {
	case KindTranscript:
		s.transcript.RecordUser(ctx, s.manager.Redact(in.Transcript), flow, step)
	case KindPayment:
		if in.Payment != nil {
			s.transcript.RecordEvent(ctx, "payment "+string(in.Payment.Status), flow, step)
		}
	}
	return in, nil
}

func (s *Session) recordReply(ctx context.Context, r Reply) (Reply, error) {
	s.transcript.RecordAssistant(ctx, r.Text, r.Flow, r.Step)
	return r, nil
}

func (s *Session) step() model.Step {
	if st := s.manager.FlowState(); st != nil {
		return st.CurrentStep()
	}
	return ""
}
