package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zpdzap/orgpool/internal/devhub"
)

func TestFullIPRangesStriping(t *testing.T) {
	ranges := FullIPRanges()
	require.Len(t, ranges, 128)

	assert.Equal(t, devhub.IPRange{Start: "0.0.0.0", End: "1.255.255.255"}, ranges[0])
	assert.Equal(t, devhub.IPRange{Start: "2.0.0.0", End: "3.255.255.255"}, ranges[1])
	assert.Equal(t, devhub.IPRange{Start: "254.0.0.0", End: "255.255.255.255"}, ranges[127])
}
