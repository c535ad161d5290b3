// Package pool implements the scratch org pool lifecycle: planning how many
// orgs each consumer may create against the remaining DevHub capacity,
// provisioning them under bounded concurrency, running post-provision setup,
// committing survivors to the remote pool table, and the later consumer
// operations (fetch, list, delete) against that table.
package pool

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a pooled scratch org.
type Status string

const (
	StatusProvisioning  Status = "In Progress"
	StatusScriptRunning Status = "Allocate"
	StatusAvailable     Status = "Available"
	StatusAssigned      Status = "Assigned"
	StatusDeleted       Status = "Deleted"
)

var (
	// ErrNotFound is returned by Fetch when no available org could be claimed.
	ErrNotFound = errors.New("no available scratch org in pool")

	// ErrNoCapacity signals that the DevHub has no remaining headroom. A create
	// run that hits this exits cleanly; an exhausted quota is a steady state,
	// not a failure.
	ErrNoCapacity = errors.New("no remaining scratch org capacity")
)

// User is one consumer's demand record. The planner mutates the derived
// fields in place while computing the run's allocation.
type User struct {
	Username      string
	Priority      int
	MinAllocation int
	MaxAllocation int
	ExpiryDays    int

	// Derived during planning.
	CurrentAllocation int
	ToAllocate        int
	ToSatisfyMin      int
	ToSatisfyMax      int
}

// ScratchOrg is one org created by this run. The run owns it exclusively
// until the committer writes it to the pool table; orgs whose setup failed
// are deleted instead and never become visible to consumers.
type ScratchOrg struct {
	OrgID          string
	RecordID       string // pool-table row id, resolved after creation
	Consumer       string // pool user this org was provisioned for
	Username       string
	LoginURL       string
	Password       string
	SfdxAuthURL    string
	ExpirationDate string
	Status         Status

	ScriptExecuted bool
	ScriptResult   *ScriptResult

	// SetupErr marks the org ineligible for commit before the script even
	// runs (creation succeeded but password or login setup did not).
	SetupErr error
}

// ScriptResult is the outcome of the consumer setup script for one org.
// Produced once, never retried.
type ScriptResult struct {
	Username string
	Success  bool
	Message  string
}

// Row is one pool-table row as consumers see it.
type Row struct {
	RecordID       string
	OrgID          string
	Tag            string
	Username       string
	Email          string
	Password       string
	LoginURL       string
	SfdxAuthURL    string
	Status         Status
	ExpirationDate string
	CreatedAt      time.Time
}
