package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/stakewake/internal/custody"
)

// ErrCustodyDown is the default failure returned by FailingCustodian.
var ErrCustodyDown = errors.New("custodian unavailable")

// FailingCustodian wraps a Custodian and fails selected instructions.
//
// With FailOn nil every instruction fails. Calls that pass through are
// forwarded to Next (when set). Every call is recorded.
type FailingCustodian struct {
	Next   custody.Custodian
	FailOn func(custody.Instruction) bool
	Err    error

	mu    sync.Mutex
	calls []custody.Instruction
}

// Execute implements custody.Custodian.
func (f *FailingCustodian) Execute(ctx context.Context, in custody.Instruction) error {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	failOn, next, failErr := f.FailOn, f.Next, f.Err
	f.mu.Unlock()

	if failOn == nil || failOn(in) {
		if failErr != nil {
			return failErr
		}
		return ErrCustodyDown
	}
	if next == nil {
		return nil
	}
	return next.Execute(ctx, in)
}

// Calls returns every instruction seen so far.
func (f *FailingCustodian) Calls() []custody.Instruction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]custody.Instruction(nil), f.calls...)
}

// Heal stops all further failures.
func (f *FailingCustodian) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailOn = func(custody.Instruction) bool { return false }
}
