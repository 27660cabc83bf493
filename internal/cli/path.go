package cli

import (
	"errors"
	"strings"
)

// PathSeparator separates the lot from the label in a path.
const PathSeparator = "::"

var errEmptyLabel = errors.New("path has no label")

// Path addresses one label inside one lot.
type Path struct {
	Lot   string
	Label string
}

// ParsePath splits s on its last "::". A missing or empty lot part means
// defaultLot. Labels may therefore contain "::" only if a lot is given.
func ParsePath(s, defaultLot string) (Path, error) {
	lot, label := defaultLot, s
	if i := strings.LastIndex(s, PathSeparator); i >= 0 {
		lot, label = s[:i], s[i+len(PathSeparator):]
		if lot == "" {
			lot = defaultLot
		}
	}
	if label == "" {
		return Path{}, errEmptyLabel
	}
	return Path{Lot: lot, Label: label}, nil
}

// parseLot accepts "lot" or "lot::" and returns the lot name.
func parseLot(s, defaultLot string) string {
	s = strings.TrimSuffix(s, PathSeparator)
	if s == "" {
		return defaultLot
	}
	return s
}

func (p Path) String() string {
	return p.Lot + PathSeparator + p.Label
}
