package loader

import (
	"sort"
	"time"

	"github.com/maubernardi/analisipolitiche/internal/model"
)

// Stats summarizes a classified dataset.
type Stats struct {
	Rows          int
	Beneficiaries int
	Operators     int
	First         time.Time // zero when no row has a reference date
	Last          time.Time
}

// Summarize computes headline statistics over the valid rows.
func Summarize(valid []model.ValidRow) Stats {
	s := Stats{Rows: len(valid)}

	beneficiaries := make(map[string]struct{})
	operators := make(map[string]struct{})
	for _, row := range valid {
		beneficiaries[row.Beneficiary] = struct{}{}
		operators[row.Operator] = struct{}{}
		if row.RefDate == nil {
			continue
		}
		if s.First.IsZero() || row.RefDate.Before(s.First) {
			s.First = *row.RefDate
		}
		if s.Last.IsZero() || row.RefDate.After(s.Last) {
			s.Last = *row.RefDate
		}
	}

	s.Beneficiaries = len(beneficiaries)
	s.Operators = len(operators)
	return s
}

// ReasonCount is one entry of the discard summary.
type ReasonCount struct {
	Reason string
	Count  int
}

// DiscardSummary counts discarded rows per exclusion reason, most frequent
// first, ties broken by reason.
func DiscardSummary(discarded []model.DiscardedRow) []ReasonCount {
	counts := make(map[string]int)
	for _, row := range discarded {
		counts[row.Reason]++
	}

	out := make([]ReasonCount, 0, len(counts))
	for reason, count := range counts {
		out = append(out, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
