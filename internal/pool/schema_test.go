package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zpdzap/orgpool/internal/devhub"
)

func TestAdapterSelection(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"full picklist", []string{"Available", "In Progress", "Allocate", "Assigned"}, "enum-status"},
		{"assigned only", []string{"Assigned"}, "legacy-status"},
		{"field absent", nil, "legacy-status"},
		{"partial migration", []string{"Available", "Assigned"}, "legacy-status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapterForValues(tt.values).Name())
		})
	}
}

func TestEnumStatusOf(t *testing.T) {
	a := EnumStatusAdapter{}

	assert.Equal(t, StatusAvailable, a.StatusOf(devhub.Record{fieldStatus: "Available"}))
	assert.Equal(t, StatusAssigned, a.StatusOf(devhub.Record{fieldStatus: "Assigned"}))
	assert.Equal(t, StatusProvisioning, a.StatusOf(devhub.Record{fieldStatus: "In Progress"}))
	assert.Equal(t, StatusProvisioning, a.StatusOf(devhub.Record{}))
}

func TestLegacyStatusOf(t *testing.T) {
	a := LegacyStatusAdapter{}

	assert.Equal(t, StatusAssigned, a.StatusOf(devhub.Record{fieldStatus: "Assigned"}))
	assert.Equal(t, StatusAvailable, a.StatusOf(devhub.Record{fieldPassword: "hunter2!A"}))
	assert.Equal(t, StatusProvisioning, a.StatusOf(devhub.Record{}))
}

func TestLegacyWireValue(t *testing.T) {
	a := LegacyStatusAdapter{}

	// Legacy schemas only ever store the assigned marker.
	assert.Equal(t, "Assigned", a.WireValue(StatusAssigned))
	assert.Equal(t, "", a.WireValue(StatusAvailable))
	assert.Equal(t, "", a.WireValue(StatusProvisioning))
}
