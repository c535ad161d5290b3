package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoUsers() []*User {
	return []*User{
		{Username: "ci-1", Priority: 1, MinAllocation: 2, MaxAllocation: 5},
		{Username: "ci-2", Priority: 2, MinAllocation: 3, MaxAllocation: 5},
	}
}

func allocations(users []*User) []int {
	out := make([]int, len(users))
	for i, u := range users {
		out[i] = u.ToAllocate
	}
	return out
}

func TestPlanCapacityCoversMax(t *testing.T) {
	users := twoUsers()
	total := Plan(10, users)

	assert.Equal(t, []int{5, 5}, allocations(users))
	assert.Equal(t, 10, total)
}

func TestPlanCapacityCoversMinOnly(t *testing.T) {
	users := twoUsers()
	total := Plan(6, users)

	// Minimums [2,3] first, then the single leftover unit goes to priority 1.
	assert.Equal(t, []int{3, 3}, allocations(users))
	assert.Equal(t, 6, total)
}

func TestPlanLowCapacityFinalPassOvershoot(t *testing.T) {
	users := twoUsers()
	total := Plan(3, users)

	// Budget 3 against total minimum 5: round-robin hands out one unit per
	// unsaturated user per pass and only re-checks the budget between
	// passes, so the second pass gives both users a unit even though the
	// budget ran out after the first. The extra unit is long-standing
	// behavior; the signup API rejects over-quota creations at provision
	// time, which the provisioner absorbs per-user.
	assert.Equal(t, []int{2, 2}, allocations(users))
	assert.Equal(t, 4, total)
}

func TestPlanLowCapacitySaturation(t *testing.T) {
	users := []*User{
		{Username: "a", Priority: 1, MinAllocation: 1, MaxAllocation: 1},
		{Username: "b", Priority: 2, MinAllocation: 4, MaxAllocation: 4},
	}
	total := Plan(3, users)

	// User a saturates at 1 in the first pass; the rest goes to b.
	assert.Equal(t, []int{1, 2}, allocations(users))
	assert.Equal(t, 3, total)
}

func TestPlanNeverExceedsMax(t *testing.T) {
	users := []*User{
		{Username: "a", Priority: 3, MinAllocation: 0, MaxAllocation: 2, CurrentAllocation: 1},
		{Username: "b", Priority: 1, MinAllocation: 2, MaxAllocation: 3},
		{Username: "c", Priority: 2, MinAllocation: 1, MaxAllocation: 4, CurrentAllocation: 4},
	}
	Plan(100, users)

	for _, u := range users {
		assert.LessOrEqual(t, u.ToAllocate, u.ToSatisfyMax, "user %s over max", u.Username)
	}
}

func TestPlanSortsByPriority(t *testing.T) {
	users := []*User{
		{Username: "low", Priority: 9, MaxAllocation: 1},
		{Username: "high", Priority: 1, MaxAllocation: 1},
	}
	Plan(10, users)

	require.Equal(t, "high", users[0].Username)
	require.Equal(t, "low", users[1].Username)
}

func TestPlanCurrentAllocationReducesDemand(t *testing.T) {
	users := []*User{
		{Username: "a", Priority: 1, MinAllocation: 2, MaxAllocation: 5, CurrentAllocation: 4},
	}
	total := Plan(10, users)

	assert.Equal(t, 1, total)
	assert.Equal(t, 0, users[0].ToSatisfyMin)
	assert.Equal(t, 1, users[0].ToSatisfyMax)
}

func TestPlanDeterministic(t *testing.T) {
	first := twoUsers()
	second := twoUsers()
	Plan(6, first)
	Plan(6, second)

	assert.Equal(t, allocations(first), allocations(second))
}

func TestPlanZeroRemaining(t *testing.T) {
	users := twoUsers()
	total := Plan(0, users)

	assert.Equal(t, 0, total)
	assert.Equal(t, []int{0, 0}, allocations(users))
}

func TestPlanTagOnly(t *testing.T) {
	u := &User{Priority: 1, MaxAllocation: 8}
	assert.Equal(t, 8, PlanTagOnly(20, u))

	u = &User{Priority: 1, MaxAllocation: 8, CurrentAllocation: 5}
	assert.Equal(t, 3, PlanTagOnly(20, u))

	u = &User{Priority: 1, MaxAllocation: 8}
	assert.Equal(t, 2, PlanTagOnly(2, u))

	u = &User{Priority: 1, MaxAllocation: 8}
	assert.Equal(t, 0, PlanTagOnly(-1, u))
}
