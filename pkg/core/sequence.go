package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-social/pkg/apperr"
)

// Policy decides what a failing step does to the rest of its sequence.
type Policy int

const (
	// Required failures abort the sequence, compensate what already
	// committed and surface the error.
	Required Policy = iota
	// Degradable failures are logged and reported as a warning; the
	// remaining steps are skipped and the sequence still succeeds.
	Degradable
)

func (p Policy) String() string {
	if p == Degradable {
		return "degradable"
	}
	return "required"
}

// Step is one call into one concept. Steps commit independently.
type Step struct {
	Module     string
	Operation  string
	Policy     Policy
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

type StepInfo struct {
	Module      string `json:"module"`
	Operation   string `json:"operation"`
	Policy      string `json:"policy"`
	Compensable bool   `json:"compensable"`
}

// Warning reports a degraded step to the client.
type Warning struct {
	Module    string `json:"module"`
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

// StepObserver is told about every failed step.
type StepObserver interface {
	StepFailed(sequence, module, operation string)
}

// Sequence runs steps strictly in order with no shared transaction.
type Sequence struct {
	Name     string
	Steps    []Step
	Log      *zap.Logger
	Observer StepObserver
}

func NewSequence(name string, log *zap.Logger, obs StepObserver) *Sequence {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sequence{Name: name, Log: log, Observer: obs}
}

// Then appends a step.
func (s *Sequence) Then(st Step) *Sequence {
	s.Steps = append(s.Steps, st)
	return s
}

func (s *Sequence) Describe() []StepInfo {
	out := make([]StepInfo, 0, len(s.Steps))
	for _, st := range s.Steps {
		out = append(out, StepInfo{
			Module:      st.Module,
			Operation:   st.Operation,
			Policy:      st.Policy.String(),
			Compensable: st.Compensate != nil,
		})
	}
	return out
}

// Run executes the steps. The returned warnings describe degraded steps;
// err is the failure of a required step.
func (s *Sequence) Run(ctx context.Context) ([]Warning, error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	var committed []Step
	for i, st := range s.Steps {
		err := st.Run(ctx)
		if err == nil {
			committed = append(committed, st)
			continue
		}
		if s.Observer != nil {
			s.Observer.StepFailed(s.Name, st.Module, st.Operation)
		}

		if st.Policy == Degradable {
			log.Warn("sync step degraded",
				zap.String("sequence", s.Name),
				zap.String("module", st.Module),
				zap.String("operation", st.Operation),
				zap.Int("skipped", len(s.Steps)-i-1),
				zap.Error(err),
			)
			return []Warning{{
				Module:    st.Module,
				Operation: st.Operation,
				Message:   fmt.Sprintf("%s.%s failed: %s", st.Module, st.Operation, apperr.PublicMessage(err)),
			}}, nil
		}

		s.compensate(ctx, log, committed)
		return nil, err
	}
	return nil, nil
}

func (s *Sequence) compensate(ctx context.Context, log *zap.Logger, committed []Step) {
	// The request may already be cancelled; compensation still has to run.
	ctx = context.WithoutCancel(ctx)
	for i := len(committed) - 1; i >= 0; i-- {
		st := committed[i]
		if st.Compensate == nil {
			continue
		}
		if err := st.Compensate(ctx); err != nil {
			log.Error("sync compensation failed",
				zap.String("sequence", s.Name),
				zap.String("module", st.Module),
				zap.String("operation", st.Operation),
				zap.Error(err),
			)
		}
	}
}
