// Package script runs the consumer-supplied setup executable against a
// freshly provisioned org. The script's contents are opaque to the pool; it
// gets the org and hub identities through the environment and its combined
// output is captured for the run report.
package script

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one script execution.
const DefaultTimeout = 30 * time.Minute

// Result is the outcome of one execution. A script runs once per org and is
// never retried.
type Result struct {
	Username string
	Success  bool
	Message  string
}

// Runner executes a setup script for one org.
type Runner interface {
	Run(ctx context.Context, path, orgUsername, hubUsername string) Result
}

// ExecRunner runs the script as a subprocess.
type ExecRunner struct {
	Log     zerolog.Logger
	Timeout time.Duration
}

// Run executes path with SCRATCH_ORG and DEVHUB set. Non-zero exit, a
// missing script, or a timeout all come back as a failed Result; nothing
// here is fatal to sibling orgs.
func (r ExecRunner) Run(ctx context.Context, path, orgUsername, hubUsername string) Result {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path)
	cmd.Env = append(os.Environ(),
		"SCRATCH_ORG="+orgUsername,
		"DEVHUB="+hubUsername,
	)

	out, err := cmd.CombinedOutput()
	msg := strings.TrimSpace(string(out))
	if err != nil {
		r.Log.Warn().Str("org", orgUsername).Err(err).Msg("setup script failed")
		if msg == "" {
			msg = err.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		return Result{Username: orgUsername, Success: false, Message: msg}
	}

	return Result{Username: orgUsername, Success: true, Message: msg}
}
