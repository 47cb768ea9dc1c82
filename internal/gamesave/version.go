package gamesave

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the two-part format version carried by tagged saves. Legacy saves
// decode with Major 0 and the legacy revision in Minor.
type Version struct {
	Major int
	Minor int
}

var (
	// CurrentVersion is the newest version this package writes and fully
	// understands.
	CurrentVersion = Version{Major: 1, Minor: 4}

	// MinTaggedVersion is the oldest tagged version accepted.
	MinTaggedVersion = Version{Major: 1, Minor: 0}
)

// Versions that introduced optional data. A save using one of these features
// cannot be labelled with an older version.
var (
	versionBlockAirMaps = Version{Major: 1, Minor: 1}
	versionTmp34        = Version{Major: 1, Minor: 2}
	versionGravityMaps  = Version{Major: 1, Minor: 3}
	versionRNGState     = Version{Major: 1, Minor: 4}
)

// Less reports whether v is older than o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// Max returns the newer of v and o.
func (v Version) Max(o Version) Version {
	if v.Less(o) {
		return o
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseVersion parses "major.minor". Both parts must fit in a byte.
func ParseVersion(s string) (Version, error) {
	majorStr, minorStr, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Version{}, fmt.Errorf("version %q: expected major.minor", s)
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 || major > 0xFF {
		return Version{}, fmt.Errorf("version %q: bad major", s)
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil || minor < 0 || minor > 0xFF {
		return Version{}, fmt.Errorf("version %q: bad minor", s)
	}
	return Version{Major: major, Minor: minor}, nil
}
