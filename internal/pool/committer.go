package pool

import (
	"context"

	"github.com/rs/zerolog"
)

// committerStore is the slice of the store the committer needs.
type committerStore interface {
	ResolveRecordIDs(ctx context.Context, orgs []*ScratchOrg) error
	MarkAvailable(ctx context.Context, org *ScratchOrg, tag string) error
	DeleteOrg(ctx context.Context, orgID string) error
}

// CommitResult tallies one run's outcome. Committed+Failed always equals the
// number of orgs the run provisioned.
type CommitResult struct {
	Committed int
	Failed    int
}

// Committer promotes eligible orgs into the pool table and reclaims the rest.
type Committer struct {
	store committerStore
	log   zerolog.Logger
}

// NewCommitter returns a committer over the given store.
func NewCommitter(store committerStore, log zerolog.Logger) *Committer {
	return &Committer{store: store, log: log}
}

// Commit resolves the batch's pool record ids, writes tag and password for
// every org whose setup fully succeeded, and deletes the others so their
// capacity returns to the hub. A commit error for one org is swallowed,
// counted as a failure and triggers the same compensating delete; it never
// aborts the batch.
func (c *Committer) Commit(ctx context.Context, tag string, orgs []*ScratchOrg) CommitResult {
	var res CommitResult
	if len(orgs) == 0 {
		return res
	}

	if err := c.store.ResolveRecordIDs(ctx, orgs); err != nil {
		// Without record ids nothing can be promoted; reclaim everything.
		c.log.Error().Err(err).Msg("record id resolution failed, reclaiming whole batch")
		for _, org := range orgs {
			c.reclaim(ctx, org)
			res.Failed++
		}
		return res
	}

	for _, org := range orgs {
		if !c.eligible(org) {
			c.reclaim(ctx, org)
			res.Failed++
			continue
		}

		if err := c.store.MarkAvailable(ctx, org, tag); err != nil {
			c.log.Warn().Str("org", org.Username).Err(err).Msg("commit failed, reclaiming org")
			c.reclaim(ctx, org)
			res.Failed++
			continue
		}

		org.Status = StatusAvailable
		res.Committed++
		c.log.Info().Str("org", org.Username).Str("tag", tag).Msg("org committed to pool")
	}
	return res
}

func (c *Committer) eligible(org *ScratchOrg) bool {
	if org.SetupErr != nil {
		return false
	}
	return org.ScriptExecuted
}

// reclaim deletes an org that must never become visible to consumers. Best
// effort: a failed delete is logged and the org stays counted as a failure.
func (c *Committer) reclaim(ctx context.Context, org *ScratchOrg) {
	if err := c.store.DeleteOrg(ctx, org.OrgID); err != nil {
		c.log.Error().Str("org", org.Username).Err(err).Msg("compensating delete failed, org may leak capacity")
		return
	}
	org.Status = StatusDeleted
}
