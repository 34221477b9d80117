package deals

import (
	"sort"
	"strings"
)

// emptyRangeWidth widens a degenerate amount range so a slider stays usable
const emptyRangeWidth = 1_000_000

// Options lists the choices offered by the dashboard filters
type Options struct {
	Industries []string `json:"industries"`
	Statuses   []string `json:"statuses"`
	MinTarget  float64  `json:"min_target"`
	MaxTarget  float64  `json:"max_target"`
}

// FilterOptions derives filter choices from deals. "All" is always first.
func FilterOptions(deals []Deal) Options {
	opts := Options{
		Industries: withAll(unique(deals, func(d Deal) string { return d.Industry })),
		Statuses:   withAll(unique(deals, func(d Deal) string { return d.Status })),
	}
	opts.MinTarget, opts.MaxTarget = TargetRange(deals)
	return opts
}

// TargetRange returns the smallest and largest target amount.
// When min >= max the upper bound is widened by one million.
func TargetRange(deals []Deal) (float64, float64) {
	var lo, hi float64
	for i, d := range deals {
		if i == 0 || d.TargetAmount < lo {
			lo = d.TargetAmount
		}
		if i == 0 || d.TargetAmount > hi {
			hi = d.TargetAmount
		}
	}
	if lo >= hi {
		hi = lo + emptyRangeWidth
	}
	return lo, hi
}

func unique(deals []Deal, key func(Deal) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range deals {
		v := key(d)
		if strings.TrimSpace(v) == "" || v == AllOption {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func withAll(values []string) []string {
	return append([]string{AllOption}, values...)
}
