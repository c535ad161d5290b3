package pool

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zpdzap/orgpool/internal/config"
	"github.com/zpdzap/orgpool/internal/devhub"
	"github.com/zpdzap/orgpool/internal/script"
)

// Manager drives one pool create run end to end: capacity snapshot, usage
// count, allocation plan, provisioning, post-provision setup, commit.
type Manager struct {
	store       *Store
	runner      script.Runner
	hubUsername string
	concurrency int64
	log         zerolog.Logger
}

// NewManager wires a create run. concurrency <= 0 uses the default ceiling.
func NewManager(store *Store, runner script.Runner, hubUsername string, concurrency int64, log zerolog.Logger) *Manager {
	return &Manager{
		store:       store,
		runner:      runner,
		hubUsername: hubUsername,
		concurrency: concurrency,
		log:         log,
	}
}

// UserReport is one consumer's slice of a run report.
type UserReport struct {
	Username    string
	Priority    int
	Current     int
	Planned     int
	Provisioned int
}

// CreateReport aggregates a create run.
type CreateReport struct {
	Tag         string
	Remaining   int
	Max         int
	Planned     int
	Provisioned int
	Committed   int
	Failed      int
	Users       []UserReport
	Scripts     []ScriptResult
}

// CreatePool runs the whole pipeline for one config. Capacity exhaustion is
// an expected steady state: the run logs it and returns a report, not an
// error. Errors before provisioning starts (limits unreachable, usage query
// failing) abort the run.
func (m *Manager) CreatePool(ctx context.Context, cfg *config.File) (*CreateReport, error) {
	tag := cfg.Pool.Tag
	report := &CreateReport{Tag: tag}

	remaining, maxOrgs, err := m.store.Limits(ctx)
	if err != nil {
		return nil, err
	}
	report.Remaining, report.Max = remaining, maxOrgs
	m.log.Info().Int("remaining", remaining).Int("max", maxOrgs).Str("tag", tag).Msg("capacity snapshot")

	counts, err := m.store.CurrentAllocations(ctx, tag)
	if err != nil {
		return nil, err
	}

	users := usersFromConfig(cfg, counts)
	var planned int
	if cfg.TagOnly() {
		planned = PlanTagOnly(remaining, users[0])
	} else {
		planned = Plan(remaining, users)
	}
	report.Planned = planned
	for _, u := range users {
		report.Users = append(report.Users, UserReport{
			Username: u.Username,
			Priority: u.Priority,
			Current:  u.CurrentAllocation,
			Planned:  u.ToAllocate,
		})
	}

	if planned == 0 {
		m.log.Info().Str("tag", tag).Msg("nothing to provision, pool is satisfied or capacity exhausted")
		return report, nil
	}

	prov := NewProvisioner(m.store, tag, cfg.Pool.ConfigFilePath, m.concurrency, m.log)
	orgs := prov.CreateAll(ctx, users)
	report.Provisioned = len(orgs)
	for i := range report.Users {
		for _, org := range orgs {
			if org.Consumer == report.Users[i].Username {
				report.Users[i].Provisioned++
			}
		}
	}

	ranges := relaxRanges(cfg)
	pipeline := NewPipeline(m.store, m.runner, cfg.Pool.ScriptFilePath, m.hubUsername, ranges, m.log)
	pipeline.Run(ctx, orgs)
	for _, org := range orgs {
		if org.ScriptResult != nil {
			report.Scripts = append(report.Scripts, *org.ScriptResult)
		}
	}

	commit := NewCommitter(m.store, m.log).Commit(ctx, tag, orgs)
	report.Committed = commit.Committed
	report.Failed = commit.Failed

	m.log.Info().
		Int("planned", report.Planned).
		Int("provisioned", report.Provisioned).
		Int("committed", report.Committed).
		Int("failed", report.Failed).
		Str("tag", tag).
		Msg("pool create run finished")
	return report, nil
}

func usersFromConfig(cfg *config.File, counts map[string]int) []*User {
	cfgUsers := cfg.Users()
	users := make([]*User, 0, len(cfgUsers))
	for _, cu := range cfgUsers {
		u := &User{
			Username:      cu.Username,
			Priority:      cu.Priority,
			MinAllocation: cu.MinAllocation,
			MaxAllocation: cu.MaxAllocation,
			ExpiryDays:    cu.ExpiryDays,
		}
		if cfg.TagOnly() {
			// Single-consumer mode: every row in the pool counts against it.
			for _, n := range counts {
				u.CurrentAllocation += n
			}
		} else {
			u.CurrentAllocation = counts[cu.Username]
		}
		users = append(users, u)
	}
	return users
}

func relaxRanges(cfg *config.File) []devhub.IPRange {
	if cfg.Pool.RelaxAllIPs {
		return FullIPRanges()
	}
	if len(cfg.Pool.RelaxIPRanges) > 0 {
		return cfg.Pool.RelaxIPRanges
	}
	return nil
}
