package version

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// parse reads "v1.2.3", "1.2" or "1.2.3-rc1" into major, minor and patch.
// Missing parts are zero and pre-release or build suffixes are ignored.
func parse(s string) ([3]int, error) {
	var parts [3]int

	core, _, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(s), "v"), "-")
	core, _, _ = strings.Cut(core, "+")

	fields := strings.Split(core, ".")
	if len(fields) > len(parts) {
		return parts, fmt.Errorf("version %q: too many parts", s)
	}

	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return parts, fmt.Errorf("version %q: bad part %q", s, field)
		}
		parts[i] = n
	}

	return parts, nil
}

// Compare orders two release versions: 1 if a is newer, -1 if b is, 0 if equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	return slices.Compare(av[:], bv[:]), nil
}
