package deals

import "strings"

// AllOption is the filter value that disables a dimension
const AllOption = "All"

// Criteria selects deals. Zero values disable each predicate.
type Criteria struct {
	Search    string
	Industry  string
	Status    string
	MinTarget *float64 // inclusive
	MaxTarget *float64 // inclusive
}

// IsZero reports whether the criteria select every deal
func (c Criteria) IsZero() bool {
	return searchDisabled(c.Search) &&
		disabled(c.Industry) && disabled(c.Status) &&
		c.MinTarget == nil && c.MaxTarget == nil
}

// Filter returns the deals matching every predicate in c, in input order.
// The result is never nil.
func Filter(deals []Deal, c Criteria) []Deal {
	search := ""
	if !searchDisabled(c.Search) {
		search = strings.ToLower(c.Search)
	}

	out := make([]Deal, 0, len(deals))
	for _, d := range deals {
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Title), search) &&
			!strings.Contains(strings.ToLower(d.Description), search) {
			continue
		}
		if !disabled(c.Industry) && d.Industry != c.Industry {
			continue
		}
		if !disabled(c.Status) && d.Status != c.Status {
			continue
		}
		if c.MinTarget != nil && d.TargetAmount < *c.MinTarget {
			continue
		}
		if c.MaxTarget != nil && d.TargetAmount > *c.MaxTarget {
			continue
		}
		out = append(out, d)
	}
	return out
}

func disabled(v string) bool {
	return v == "" || v == AllOption
}

// Blank search text and the All sentinel match everything. Any other text
// is matched as typed, surrounding spaces included.
func searchDisabled(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, AllOption)
}
