package invite

import (
	"context"

	"github.com/rs/zerolog/log"
)

// step is one provisioning action with an optional compensating action.
// Steps without anything to undo leave compensate nil.
type step struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga executes an ordered list of steps, keeping a stack of the
// compensations for steps that completed. On the first failure the stack is
// unwound in reverse order and the step's error is returned. This is
// best-effort cleanup, not a distributed transaction: a compensation that
// itself fails is logged and never escalated, so the original error always
// reaches the caller.
type saga struct {
	steps []step
}

func (s *saga) add(name string, run, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, step{name: name, run: run, compensate: compensate})
}

func (s *saga) execute(ctx context.Context) error {
	var applied []step

	for _, st := range s.steps {
		if err := st.run(ctx); err != nil {
			s.unwind(ctx, applied, st.name)
			return err
		}
		if st.compensate != nil {
			applied = append(applied, st)
		}
	}

	return nil
}

func (s *saga) unwind(ctx context.Context, applied []step, failedStep string) {
	for i := len(applied) - 1; i >= 0; i-- {
		st := applied[i]
		if err := st.compensate(ctx); err != nil {
			log.Error().Err(err).
				Str("step", st.name).
				Str("failed_step", failedStep).
				Msg("invite: compensation failed; manual cleanup may be required")
		}
	}
}
