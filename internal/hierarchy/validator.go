// Package hierarchy decides whether a manager assignment keeps the reporting graph a forest.
package hierarchy

import (
	"context"
	"fmt"
)

// Reason explains why an assignment was refused.
type Reason string

const (
	ReasonSelfManager     Reason = "self_manager"
	ReasonManagerNotFound Reason = "manager_not_found"
	ReasonCycleDetected   Reason = "cycle_detected"
)

// Lookup is the read access the check needs. Implementations must see the same
// snapshot the caller later writes to.
type Lookup interface {
	// ManagerOf returns the manager of id. found is false when id does not exist.
	ManagerOf(ctx context.Context, id int64) (managerID *int64, found bool, err error)
	// Count returns the number of employees; it bounds the ancestor walk.
	Count(ctx context.Context) (int, error)
}

// Decision is the outcome of Check.
type Decision struct {
	Allowed bool
	Reason  Reason
	// Chain lists the ancestors visited, starting with the proposed manager.
	Chain []int64
}

func allow(chain []int64) Decision { return Decision{Allowed: true, Chain: chain} }

func reject(reason Reason, chain []int64) Decision {
	return Decision{Reason: reason, Chain: chain}
}

// Check validates making managerID the manager of employeeID. A nil managerID clears
// the reference and is always allowed. The error is non-nil only when the lookup fails.
func Check(ctx context.Context, lookup Lookup, employeeID int64, managerID *int64) (Decision, error) {
	if managerID == nil {
		return allow(nil), nil
	}
	candidate := *managerID
	if candidate == employeeID {
		return reject(ReasonSelfManager, nil), nil
	}

	next, found, err := lookup.ManagerOf(ctx, candidate)
	if err != nil {
		return Decision{}, fmt.Errorf("load manager %d: %w", candidate, err)
	}
	if !found {
		return reject(ReasonManagerNotFound, nil), nil
	}

	bound, err := lookup.Count(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("count employees: %w", err)
	}

	chain := []int64{candidate}
	visited := map[int64]struct{}{candidate: {}}
	for next != nil {
		current := *next
		if current == employeeID {
			return reject(ReasonCycleDetected, chain), nil
		}
		// A revisit or an over-long chain means the stored data already loops.
		if _, seen := visited[current]; seen || len(chain) >= bound {
			return reject(ReasonCycleDetected, chain), nil
		}
		visited[current] = struct{}{}
		chain = append(chain, current)

		next, found, err = lookup.ManagerOf(ctx, current)
		if err != nil {
			return Decision{}, fmt.Errorf("load manager %d: %w", current, err)
		}
		if !found {
			// dangling reference, treat as a root
			break
		}
	}

	return allow(chain), nil
}
