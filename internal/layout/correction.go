package layout

import (
	"fmt"
	"sort"
)

// SizeCorrection adds Delta bytes to a record's declared size on every OS
// release at or beyond {Major, Build}. The values were found empirically
// and must be revalidated for each newly supported build.
type SizeCorrection struct {
	Major uint32 `yaml:"major"`
	Build uint32 `yaml:"build"`
	Delta int    `yaml:"delta"`
}

// Crossed reports whether v is at or beyond the threshold.
func (c SizeCorrection) Crossed(v Version) bool {
	return v.Major > c.Major || (v.Major == c.Major && v.Build >= c.Build)
}

// CorrectionTable is an ordered list of thresholds; deltas accumulate.
type CorrectionTable []SizeCorrection

// DefaultEntryCorrections applies to RASENTRY: the struct grew on Vista SP1
// (6.0.6001) and again on Windows 7 (6.1.7600) beyond what the headers declare.
var DefaultEntryCorrections = CorrectionTable{
	{Major: 6, Build: 6001, Delta: 4},
	{Major: 6, Build: 7600, Delta: 4},
}

// Delta returns the total correction for release v.
func (t CorrectionTable) Delta(v Version) int {
	d := 0
	for _, c := range t {
		if c.Crossed(v) {
			d += c.Delta
		}
	}
	return d
}

// Apply returns size plus the correction for v.
func (t CorrectionTable) Apply(v Version, size int) int {
	return size + t.Delta(v)
}

// Validate rejects negative deltas, which would make the size shrink as the
// OS version grows.
func (t CorrectionTable) Validate() error {
	for i, c := range t {
		if c.Delta < 0 {
			return fmt.Errorf("layout: size correction %d (%d.%d): negative delta %d", i, c.Major, c.Build, c.Delta)
		}
	}
	return nil
}

// Sorted returns the table ordered by threshold.
func (t CorrectionTable) Sorted() CorrectionTable {
	out := make(CorrectionTable, len(t))
	copy(out, t)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Major != out[j].Major {
			return out[i].Major < out[j].Major
		}
		return out[i].Build < out[j].Build
	})
	return out
}
