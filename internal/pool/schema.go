package pool

import (
	"context"
	"fmt"

	"github.com/zpdzap/orgpool/internal/devhub"
)

// PoolObject is the remote table tracking pooled orgs.
const PoolObject = "ScratchOrgInfo"

// Field names on the pool table.
const (
	fieldTag      = "Pooltag__c"
	fieldOrgID    = "ScratchOrg"
	fieldExpiry   = "ExpirationDate"
	fieldUsername = "SignupUsername"
	fieldEmail    = "SignupEmail"
	fieldPassword = "Password__c"
	fieldStatus   = "Allocation_status__c"
	fieldLoginURL = "LoginUrl"
	fieldAuthURL  = "SfdxAuthUrl__c"
	fieldCreated  = "CreatedDate"
)

// SchemaAdapter abstracts the two pool-table generations. Newer schemas carry
// the full allocation-status picklist; older ones predate it and only ever
// wrote the assigned marker. The adapter is chosen once at startup and all
// status logic downstream goes through it.
type SchemaAdapter interface {
	// Name identifies the adapter in logs.
	Name() string
	// AvailableCondition is the filter fragment selecting claimable rows.
	AvailableCondition() string
	// StatusOf classifies a raw row.
	StatusOf(rec devhub.Record) Status
	// WireValue is the stored representation of a status.
	WireValue(s Status) string
}

// EnumStatusAdapter handles schemas with the full status picklist.
type EnumStatusAdapter struct{}

func (EnumStatusAdapter) Name() string { return "enum-status" }

func (EnumStatusAdapter) AvailableCondition() string {
	return fmt.Sprintf("%s = '%s'", fieldStatus, StatusAvailable)
}

func (EnumStatusAdapter) StatusOf(rec devhub.Record) Status {
	switch rec.Str(fieldStatus) {
	case string(StatusAssigned):
		return StatusAssigned
	case string(StatusAvailable):
		return StatusAvailable
	default:
		return StatusProvisioning
	}
}

func (EnumStatusAdapter) WireValue(s Status) string { return string(s) }

// LegacyStatusAdapter handles schemas that predate the status picklist: an
// unassigned row has an empty status field, and only the assigned marker is
// ever written. Provisioning is inferred from a missing password.
type LegacyStatusAdapter struct{}

func (LegacyStatusAdapter) Name() string { return "legacy-status" }

func (LegacyStatusAdapter) AvailableCondition() string {
	return fmt.Sprintf("(%s = '' OR %s = null)", fieldStatus, fieldStatus)
}

func (LegacyStatusAdapter) StatusOf(rec devhub.Record) Status {
	if rec.Str(fieldStatus) == string(StatusAssigned) {
		return StatusAssigned
	}
	if rec.Str(fieldPassword) == "" {
		return StatusProvisioning
	}
	return StatusAvailable
}

func (LegacyStatusAdapter) WireValue(s Status) string {
	if s == StatusAssigned {
		return string(StatusAssigned)
	}
	return ""
}

// DetectSchema probes the status field's active picklist values and picks
// the matching adapter. Rows written by either generation keep working.
func DetectSchema(ctx context.Context, hub *devhub.Client) (SchemaAdapter, error) {
	values, err := hub.DescribeFieldValues(ctx, PoolObject, fieldStatus)
	if err != nil {
		return nil, fmt.Errorf("describing %s.%s: %w", PoolObject, fieldStatus, err)
	}
	return adapterForValues(values), nil
}

func adapterForValues(values []string) SchemaAdapter {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	if seen[string(StatusAvailable)] && seen[string(StatusAssigned)] && seen[string(StatusProvisioning)] {
		return EnumStatusAdapter{}
	}
	return LegacyStatusAdapter{}
}
