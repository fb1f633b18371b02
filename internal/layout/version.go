package layout

import "fmt"

// Version identifies an OS release by NT major/minor version and build.
type Version struct {
	Major uint32 `yaml:"major"`
	Minor uint32 `yaml:"minor"`
	Build uint32 `yaml:"build"`
}

// Releases whose headers changed the shape of RAS records.
var (
	Win2000  = Version{Major: 5, Minor: 0}
	WinXP    = Version{Major: 5, Minor: 1}
	WinVista = Version{Major: 6, Minor: 0}
	Win7     = Version{Major: 6, Minor: 1}
	Win8     = Version{Major: 6, Minor: 2}
	Win10    = Version{Major: 10, Minor: 0}
)

// Compare orders versions by major, minor, then build.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmp(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmp(v.Minor, o.Minor)
	default:
		return cmp(v.Build, o.Build)
	}
}

// AtLeast reports whether v is the same release as o or newer.
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

// IsZero reports whether no version was set.
func (v Version) IsZero() bool { return v == Version{} }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

func cmp(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
