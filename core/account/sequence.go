package account

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ebusmomentum88/school-portal-backend/core"
)

// SpaceStudent is the identifier space of student roll numbers.
const SpaceStudent = "student"

// allocRetries bounds the read-increment-write cycle under contention.
const allocRetries = 5

// Allocator issues strictly increasing ordinals per identifier space.
// Safety under concurrent callers relies on the repository's compare-and-swap
// update: two racing allocations can never both record the same ordinal,
// the loser retries against the fresh counter value.
type Allocator struct {
	repo CounterRepository
}

func NewAllocator(repo CounterRepository) *Allocator {
	return &Allocator{repo: repo}
}

// Allocate returns the next unused ordinal of `space`. The ordinal is durably
// recorded as issued before it is returned. Fails with an
// allocation_exhausted error once the retry budget is spent.
func (a *Allocator) Allocate(ctx context.Context, space string) (uint, error) {
	for attempt := 0; attempt < allocRetries; attempt++ {
		counter, err := a.repo.GetCounter(ctx, space)
		if err != nil {
			return 0, core.NewAppError(core.KindCollaboratorUnavailable,
				"reading sequence counter", errors.Wrapf(err, "space %q", space))
		}

		next := counter.LastIssued + 1
		err = a.repo.UpdateCounter(ctx, space, counter.LastIssued, next)
		if err == nil {
			return next, nil
		}
		if errors.Cause(err) == ErrCounterConflict {
			continue // another allocation won the race; re-read and retry
		}
		return 0, core.NewAppError(core.KindCollaboratorUnavailable,
			"updating sequence counter", errors.Wrapf(err, "space %q", space))
	}
	return 0, core.NewAppError(core.KindAllocationExhausted,
		"sequence allocation retry budget spent", errors.Errorf("space %q, %d attempts", space, allocRetries))
}
