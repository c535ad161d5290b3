package pool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/zpdzap/orgpool/internal/devhub"
	"github.com/zpdzap/orgpool/internal/script"
)

type fakeSettings struct {
	mu      sync.Mutex
	relaxed []string
	failFor string
}

func (f *fakeSettings) RelaxNetworkAccess(ctx context.Context, org *ScratchOrg, ranges []devhub.IPRange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if org.Username == f.failFor {
		return errors.New("settings deploy failed")
	}
	f.relaxed = append(f.relaxed, org.Username)
	return nil
}

type fakeRunner struct {
	mu      sync.Mutex
	ran     []string
	failFor string
}

func (f *fakeRunner) Run(ctx context.Context, path, orgUsername, hubUsername string) script.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, orgUsername)
	if orgUsername == f.failFor {
		return script.Result{Username: orgUsername, Success: false, Message: "exit status 1"}
	}
	return script.Result{Username: orgUsername, Success: true, Message: "ok"}
}

func testOrgs(usernames ...string) []*ScratchOrg {
	orgs := make([]*ScratchOrg, len(usernames))
	for i, u := range usernames {
		orgs[i] = &ScratchOrg{Username: u, Status: StatusProvisioning}
	}
	return orgs
}

func TestPipelineMarksScriptOutcome(t *testing.T) {
	runner := &fakeRunner{failFor: "bad@example.com"}
	pl := NewPipeline(&fakeSettings{}, runner, "setup.sh", "hub@example.com", nil, zerolog.Nop())

	orgs := testOrgs("good@example.com", "bad@example.com")
	pl.Run(context.Background(), orgs)

	assert.True(t, orgs[0].ScriptExecuted)
	assert.False(t, orgs[1].ScriptExecuted)
	assert.Equal(t, "exit status 1", orgs[1].ScriptResult.Message)
}

func TestPipelineRelaxFailureBlocksPromotion(t *testing.T) {
	settings := &fakeSettings{failFor: "good@example.com"}
	runner := &fakeRunner{}
	ranges := []devhub.IPRange{{Start: "10.0.0.0", End: "10.255.255.255"}}
	pl := NewPipeline(settings, runner, "setup.sh", "hub@example.com", ranges, zerolog.Nop())

	orgs := testOrgs("good@example.com")
	pl.Run(context.Background(), orgs)

	// The script passed, but the org's network settings are not what was
	// asked for: it must not be promoted.
	assert.True(t, orgs[0].ScriptResult.Success)
	assert.False(t, orgs[0].ScriptExecuted)
}

func TestPipelineNoScriptConfigured(t *testing.T) {
	pl := NewPipeline(&fakeSettings{}, &fakeRunner{}, "", "hub@example.com", nil, zerolog.Nop())

	orgs := testOrgs("a@example.com")
	pl.Run(context.Background(), orgs)

	assert.True(t, orgs[0].ScriptExecuted)
}

func TestPipelineSkipsOrgsWithSetupErrors(t *testing.T) {
	runner := &fakeRunner{}
	pl := NewPipeline(&fakeSettings{}, runner, "setup.sh", "hub@example.com", nil, zerolog.Nop())

	orgs := testOrgs("broken@example.com")
	orgs[0].SetupErr = errors.New("password setup failed")
	pl.Run(context.Background(), orgs)

	assert.Empty(t, runner.ran)
	assert.False(t, orgs[0].ScriptExecuted)
}

func TestPipelineRelaxDisabled(t *testing.T) {
	settings := &fakeSettings{}
	pl := NewPipeline(settings, &fakeRunner{}, "setup.sh", "hub@example.com", nil, zerolog.Nop())

	pl.Run(context.Background(), testOrgs("a@example.com", "b@example.com"))

	assert.Empty(t, settings.relaxed)
}
