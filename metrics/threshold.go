package metrics

import (
	"log/slog"
	"sort"
	"strings"
)

// ResolveThreshold selects a single scalar from the cross-component metrics
// whose key contains needle as a substring.
//
// Zero matches logs a warning and reports absence; one match returns its
// value; several matches return the value of the lexicographically smallest
// key and log a warning naming the discarded keys. Selection is deterministic
// for a given metrics map. Absence is never an error: the caller simply omits
// the corresponding reference line.
func ResolveThreshold(cross CrossMetrics, needle string, logger *slog.Logger) (float64, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	var matched []string
	for key := range cross {
		if strings.Contains(key, needle) {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)

	switch len(matched) {
	case 0:
		logger.Warn("No cross-component metric matches prefix; omitting from report",
			"prefix", needle)
		return 0, false
	case 1:
		return cross[matched[0]], true
	default:
		logger.Warn("Multiple cross-component metrics match prefix; using the lexicographically smallest",
			"prefix", needle,
			"selected", matched[0],
			"discarded", strings.Join(matched[1:], ", "))
		return cross[matched[0]], true
	}
}
