package deals

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Bucket is one row of a breakdown
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary aggregates a list of deals for the dashboard header
type Summary struct {
	TotalDeals      int      `json:"total_deals"`
	OpenDeals       int      `json:"open_deals"`
	TotalTarget     float64  `json:"total_target"`
	TotalRaised     float64  `json:"total_raised"`
	AverageProgress float64  `json:"average_progress"` // over deals with a positive target
	ByIndustry      []Bucket `json:"by_industry"`
	ByStatus        []Bucket `json:"by_status"`
}

// Summarize computes summary metrics for deals
func Summarize(deals []Deal) Summary {
	s := Summary{TotalDeals: len(deals)}

	industries := make(map[string]int)
	statuses := make(map[string]int)
	progress := make([]float64, 0, len(deals))

	for _, d := range deals {
		s.TotalTarget += d.TargetAmount
		s.TotalRaised += d.RaisedAmount
		if CategorizeStatus(d.Status) == CategoryPositive {
			s.OpenDeals++
		}
		if pct, anomaly := ProgressPercent(d); !anomaly {
			progress = append(progress, pct)
		}
		industries[d.Industry]++
		statuses[d.Status]++
	}

	if len(progress) > 0 {
		s.AverageProgress = stat.Mean(progress, nil)
	}
	s.ByIndustry = buckets(industries)
	s.ByStatus = buckets(statuses)
	return s
}

// buckets orders counts by count descending, then name ascending
func buckets(counts map[string]int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for name, n := range counts {
		out = append(out, Bucket{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
