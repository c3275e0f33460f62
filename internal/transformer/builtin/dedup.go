// Package builtin contains the record transformers used by the cleaner.
//
// DeDup collapses records that share a date_key and chooses a winner
// according to a policy:
//
//   - "keep-first"   : keep the earliest occurrence in the batch
//   - "keep-last"    : keep the latest occurrence in the batch (default)
//   - "most-complete": keep the record with the most non-null fields;
//     ties break by "keep-last"
//
// A single upsert statement cannot touch the same conflict key twice, so
// intra-call duplicates are removed before the loader sees them.
package builtin

import (
	"sort"
	"strings"

	"agroetl/pkg/records"
)

// DeDup implements a configurable, in-memory de-duplication by date_key.
type DeDup struct {
	// Policy selects the winner among duplicates: "keep-first", "keep-last",
	// or "most-complete" (default is "keep-last").
	Policy string

	// Removed, when non-nil, is incremented once per dropped duplicate.
	Removed *int
}

// Apply returns the winning record for each date_key. Winners are emitted in
// the order of their position in the input.
func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-last"
	}

	type slot struct {
		index int
		score int
	}

	scoreOf := func(r records.Record) int {
		score := 0
		for _, v := range r.Values {
			if v.Valid {
				score++
			}
		}
		if r.Location != "" {
			score++
		}
		return score
	}

	winners := make(map[string]slot, len(in))
	for i, r := range in {
		prev, exists := winners[r.DateKey]
		switch policy {
		case "keep-first":
			if !exists {
				winners[r.DateKey] = slot{index: i}
			}
		case "most-complete":
			s := slot{index: i, score: scoreOf(r)}
			if !exists || s.score >= prev.score {
				winners[r.DateKey] = s
			}
		default: // "keep-last"
			winners[r.DateKey] = slot{index: i}
		}
	}

	if d.Removed != nil {
		*d.Removed += len(in) - len(winners)
	}
	if len(winners) == len(in) {
		return in
	}

	indexes := make([]int, 0, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
	}
	sort.Ints(indexes)

	out := make([]records.Record, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, in[idx])
	}
	return out
}
