package pool

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/zpdzap/orgpool/internal/devhub"
	"github.com/zpdzap/orgpool/internal/script"
)

// orgSettings is the slice of the store the pipeline needs.
type orgSettings interface {
	RelaxNetworkAccess(ctx context.Context, org *ScratchOrg, ranges []devhub.IPRange) error
}

// Pipeline runs the post-provision steps on freshly created orgs: optional
// network-range relaxation and the consumer setup script. The two steps have
// independent concurrency ceilings; an org is eligible for commit only when
// both report success.
type Pipeline struct {
	settings    orgSettings
	runner      script.Runner
	scriptPath  string
	hubUsername string
	ranges      []devhub.IPRange // nil disables relaxation

	relaxSem  *semaphore.Weighted
	scriptSem *semaphore.Weighted
	log       zerolog.Logger
}

// NewPipeline builds a pipeline. ranges nil disables IP relaxation;
// scriptPath "" skips script execution (orgs pass that gate unconditionally).
func NewPipeline(settings orgSettings, runner script.Runner, scriptPath, hubUsername string, ranges []devhub.IPRange, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		settings:    settings,
		runner:      runner,
		scriptPath:  scriptPath,
		hubUsername: hubUsername,
		ranges:      ranges,
		relaxSem:    semaphore.NewWeighted(DefaultConcurrency),
		scriptSem:   semaphore.NewWeighted(DefaultConcurrency),
		log:         log,
	}
}

// Run processes every org, mutating each in place. Per-org outcomes are
// independent; a failure here never aborts siblings.
func (pl *Pipeline) Run(ctx context.Context, orgs []*ScratchOrg) {
	var wg sync.WaitGroup
	for _, org := range orgs {
		if org.SetupErr != nil {
			continue
		}
		wg.Add(1)
		go func(org *ScratchOrg) {
			defer wg.Done()
			pl.runOne(ctx, org)
		}(org)
	}
	wg.Wait()
}

func (pl *Pipeline) runOne(ctx context.Context, org *ScratchOrg) {
	log := pl.log.With().Str("org", org.Username).Logger()

	var relaxErr error
	if pl.ranges != nil {
		if relaxErr = pl.relaxSem.Acquire(ctx, 1); relaxErr == nil {
			relaxErr = pl.settings.RelaxNetworkAccess(ctx, org, pl.ranges)
			pl.relaxSem.Release(1)
		}
		if relaxErr != nil {
			log.Warn().Err(relaxErr).Msg("network range relaxation failed")
		}
	}

	if pl.scriptPath == "" {
		org.ScriptExecuted = true
		org.ScriptResult = &ScriptResult{Username: org.Username, Success: true, Message: "no setup script configured"}
	} else {
		if err := pl.scriptSem.Acquire(ctx, 1); err != nil {
			return
		}
		org.Status = StatusScriptRunning
		res := pl.runner.Run(ctx, pl.scriptPath, org.Username, pl.hubUsername)
		pl.scriptSem.Release(1)

		org.ScriptResult = &ScriptResult{Username: res.Username, Success: res.Success, Message: res.Message}
		org.ScriptExecuted = res.Success
	}

	// A failed relaxation blocks promotion even when the script passed: the
	// org's network settings are not what the consumer asked for.
	if relaxErr != nil {
		org.ScriptExecuted = false
	}
}
