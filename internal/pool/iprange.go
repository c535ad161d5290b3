package pool

import (
	"fmt"

	"github.com/zpdzap/orgpool/internal/devhub"
)

// FullIPRanges is the "allow everything" allow-list: 0.0.0.0 through
// 255.255.255.255 expressed as 128 two-octet-wide bands. The settings
// deployment rejects a single range spanning the whole v4 space, so the full
// range has always been striped this way. Kept byte-for-byte compatible with
// the ranges existing pools carry.
func FullIPRanges() []devhub.IPRange {
	ranges := make([]devhub.IPRange, 0, 128)
	for i := 0; i < 256; i += 2 {
		ranges = append(ranges, devhub.IPRange{
			Start: fmt.Sprintf("%d.0.0.0", i),
			End:   fmt.Sprintf("%d.255.255.255", i+1),
		})
	}
	return ranges
}
