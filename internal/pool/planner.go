package pool

import "sort"

// Plan computes how many orgs each consumer may create this run, given the
// remaining DevHub capacity snapshotted at the start of the run. Pure: no
// I/O, deterministic for identical inputs. Users are sorted by priority
// (lower number served first) and their derived fields filled in place.
// Returns the total number of orgs to create.
//
// Three regimes:
//   - capacity covers everyone's maximum: each gets its full shortfall
//   - capacity covers minimums only: minimums first, then the rest handed
//     out one unit at a time in priority order
//   - capacity below total minimum: everything handed out one unit at a
//     time in priority order
func Plan(remaining int, users []*User) int {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Priority < users[j].Priority
	})

	totalMin, totalMax := 0, 0
	for _, u := range users {
		u.ToAllocate = 0
		u.ToSatisfyMax = max(0, u.MaxAllocation-u.CurrentAllocation)
		u.ToSatisfyMin = max(0, u.MinAllocation-u.CurrentAllocation)
		totalMax += u.ToSatisfyMax
		totalMin += u.ToSatisfyMin
	}

	switch {
	case totalMax <= remaining:
		for _, u := range users {
			u.ToAllocate = u.ToSatisfyMax
		}

	case totalMin <= remaining:
		for _, u := range users {
			u.ToAllocate = u.ToSatisfyMin
		}
		distribute(remaining-totalMin, users)

	default:
		lowCapacityDistribute(remaining, users)
	}

	total := 0
	for _, u := range users {
		total += u.ToAllocate
	}
	return total
}

// PlanTagOnly is the single-consumer variant: no round-robin, just the
// user's shortfall clamped to the remaining capacity.
func PlanTagOnly(remaining int, u *User) int {
	u.ToSatisfyMax = max(0, u.MaxAllocation-u.CurrentAllocation)
	u.ToSatisfyMin = max(0, u.MinAllocation-u.CurrentAllocation)
	u.ToAllocate = min(u.ToSatisfyMax, max(0, remaining))
	return u.ToAllocate
}

// distribute hands out budget one unit at a time, cycling users in priority
// order and skipping anyone already at their maximum.
func distribute(budget int, users []*User) {
	for budget > 0 {
		progressed := false
		for _, u := range users {
			if budget == 0 {
				break
			}
			if u.ToAllocate < u.ToSatisfyMax {
				u.ToAllocate++
				budget--
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// lowCapacityDistribute is the same round-robin, but the budget is checked
// only at the top of each full pass: once a pass starts, every unsaturated
// user gets a unit even if the budget runs out mid-pass. The final pass can
// therefore hand out up to len(users)-1 units past the budget. Long-standing
// behavior; the signup API rejects over-quota creations, which the
// provisioner absorbs as an ordinary per-user creation failure.
func lowCapacityDistribute(budget int, users []*User) {
	for budget > 0 {
		progressed := false
		for _, u := range users {
			if u.ToAllocate < u.ToSatisfyMax {
				u.ToAllocate++
				budget--
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}
