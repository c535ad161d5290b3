package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency caps in-flight org creations across all consumers.
const DefaultConcurrency = 10

// orgCreator is the slice of the store the provisioner needs.
type orgCreator interface {
	CreateOrg(ctx context.Context, alias, definitionPath string, expiryDays int) (*ScratchOrg, error)
	SetPassword(ctx context.Context, org *ScratchOrg, password string) error
}

// Provisioner creates each consumer's planned orgs. Creation is strictly
// sequential within one consumer; consumers run in parallel under one shared
// concurrency ceiling so a slow consumer cannot starve the rest beyond it.
type Provisioner struct {
	creator        orgCreator
	tag            string
	definitionPath string
	sem            *semaphore.Weighted
	log            zerolog.Logger
}

// NewProvisioner returns a provisioner with the given global ceiling.
func NewProvisioner(creator orgCreator, tag, definitionPath string, concurrency int64, log zerolog.Logger) *Provisioner {
	if concurrency <= 0 || concurrency > DefaultConcurrency {
		concurrency = DefaultConcurrency
	}
	return &Provisioner{
		creator:        creator,
		tag:            tag,
		definitionPath: definitionPath,
		sem:            semaphore.NewWeighted(concurrency),
		log:            log,
	}
}

// CreateAll provisions every user's ToAllocate orgs. A creation failure
// stops that user's remaining creations for this run but leaves other users
// untouched. Returns every org that was actually created, including ones
// whose password setup failed (flagged via SetupErr so later stages skip
// them and the committer deletes them).
func (p *Provisioner) CreateAll(ctx context.Context, users []*User) []*ScratchOrg {
	perUser := make([][]*ScratchOrg, len(users))

	var wg sync.WaitGroup
	for i, u := range users {
		if u.ToAllocate <= 0 {
			continue
		}
		wg.Add(1)
		go func(idx int, u *User) {
			defer wg.Done()
			perUser[idx] = p.createForUser(ctx, idx, u)
		}(i, u)
	}
	wg.Wait()

	var all []*ScratchOrg
	for _, orgs := range perUser {
		all = append(all, orgs...)
	}
	return all
}

func (p *Provisioner) createForUser(ctx context.Context, userIdx int, u *User) []*ScratchOrg {
	log := p.log.With().Str("consumer", u.Username).Logger()
	orgs := make([]*ScratchOrg, 0, u.ToAllocate)

	for i := 0; i < u.ToAllocate; i++ {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return orgs
		}
		alias := fmt.Sprintf("%s-%d-%d", p.tag, userIdx+1, i+1)
		org, err := p.createOne(ctx, alias, u.ExpiryDays)
		p.sem.Release(1)

		if err != nil {
			// Fail fast for this consumer: a creation failure here means
			// the next request would almost certainly fail the same way.
			log.Warn().Err(err).Int("created", len(orgs)).Int("planned", u.ToAllocate).
				Msg("org creation failed, abandoning consumer's remaining allocation")
			return orgs
		}
		org.Consumer = u.Username
		log.Info().Str("org", org.Username).Str("alias", alias).Msg("scratch org created")
		orgs = append(orgs, org)
	}
	return orgs
}

// createOne creates a single org and finishes its credential setup. A
// password failure is fatal for the org, not the run: the org is returned
// with SetupErr set and the committer reclaims it.
func (p *Provisioner) createOne(ctx context.Context, alias string, expiryDays int) (*ScratchOrg, error) {
	org, err := p.creator.CreateOrg(ctx, alias, p.definitionPath, expiryDays)
	if err != nil {
		return nil, err
	}

	password, err := GeneratePassword()
	if err == nil {
		err = p.creator.SetPassword(ctx, org, password)
	}
	if err != nil {
		org.SetupErr = fmt.Errorf("password setup for %s: %w", org.Username, err)
		p.log.Warn().Err(org.SetupErr).Msg("org unusable, will be reclaimed at commit")
		return org, nil
	}

	org.Password = password
	return org, nil
}
