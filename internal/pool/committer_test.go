package pool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommitStore struct {
	resolveErr error
	markFail   map[string]bool
	marked     []string
	deleted    []string
}

func (f *fakeCommitStore) ResolveRecordIDs(ctx context.Context, orgs []*ScratchOrg) error {
	if f.resolveErr != nil {
		return f.resolveErr
	}
	for i, org := range orgs {
		org.RecordID = fmt.Sprintf("a00%06d", i)
	}
	return nil
}

func (f *fakeCommitStore) MarkAvailable(ctx context.Context, org *ScratchOrg, tag string) error {
	if f.markFail[org.Username] {
		return errors.New("row update failed")
	}
	f.marked = append(f.marked, org.Username)
	return nil
}

func (f *fakeCommitStore) DeleteOrg(ctx context.Context, orgID string) error {
	f.deleted = append(f.deleted, orgID)
	return nil
}

func committableOrgs(n int) []*ScratchOrg {
	orgs := make([]*ScratchOrg, n)
	for i := range orgs {
		orgs[i] = &ScratchOrg{
			OrgID:          fmt.Sprintf("00D%012d", i),
			Username:       fmt.Sprintf("org-%d@example.com", i),
			Password:       "Secret-123!",
			ScriptExecuted: true,
		}
	}
	return orgs
}

func TestCommitPromotesEligibleOrgs(t *testing.T) {
	store := &fakeCommitStore{}
	orgs := committableOrgs(3)

	res := NewCommitter(store, zerolog.Nop()).Commit(context.Background(), "ci", orgs)

	assert.Equal(t, 3, res.Committed)
	assert.Equal(t, 0, res.Failed)
	assert.Len(t, store.marked, 3)
	assert.Empty(t, store.deleted)
	for _, org := range orgs {
		assert.Equal(t, StatusAvailable, org.Status)
	}
}

func TestCommitReclaimsIneligibleOrgs(t *testing.T) {
	store := &fakeCommitStore{}
	orgs := committableOrgs(3)
	orgs[1].ScriptExecuted = false
	orgs[2].SetupErr = errors.New("password setup failed")

	res := NewCommitter(store, zerolog.Nop()).Commit(context.Background(), "ci", orgs)

	assert.Equal(t, 1, res.Committed)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, store.deleted, 2)
	assert.Equal(t, StatusDeleted, orgs[1].Status)
	assert.Equal(t, StatusDeleted, orgs[2].Status)
	// Accounting always balances against the provisioned total.
	assert.Equal(t, len(orgs), res.Committed+res.Failed)
}

func TestCommitSwallowsPerOrgErrors(t *testing.T) {
	store := &fakeCommitStore{markFail: map[string]bool{"org-0@example.com": true}}
	orgs := committableOrgs(2)

	res := NewCommitter(store, zerolog.Nop()).Commit(context.Background(), "ci", orgs)

	// The failing org is counted and reclaimed; the batch continues.
	assert.Equal(t, 1, res.Committed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{orgs[0].OrgID}, store.deleted)
}

func TestCommitResolveFailureReclaimsBatch(t *testing.T) {
	store := &fakeCommitStore{resolveErr: errors.New("query failed")}
	orgs := committableOrgs(2)

	res := NewCommitter(store, zerolog.Nop()).Commit(context.Background(), "ci", orgs)

	assert.Equal(t, 0, res.Committed)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, store.deleted, 2)
}

func TestCommitEmptyBatch(t *testing.T) {
	res := NewCommitter(&fakeCommitStore{}, zerolog.Nop()).Commit(context.Background(), "ci", nil)
	assert.Zero(t, res.Committed+res.Failed)
}
