package bill

import (
	"sort"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats OpenStates emits.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// History returns a copy of r's actions sorted oldest first. Actions with
// equal dates keep source order; unparseable dates sort last.
func History(r *Record) []Action {
	if r == nil {
		return []Action{}
	}
	actions := make([]Action, len(r.Actions))
	copy(actions, r.Actions)
	sort.SliceStable(actions, func(i, j int) bool {
		return dateLess(actions[i].Date, actions[j].Date)
	})
	return actions
}

// VoteHistory returns a copy of r's votes sorted oldest first, with the
// same ordering rules as History.
func VoteHistory(r *Record) []Vote {
	if r == nil {
		return []Vote{}
	}
	votes := make([]Vote, len(r.Votes))
	copy(votes, r.Votes)
	sort.SliceStable(votes, func(i, j int) bool {
		return dateLess(votes[i].Date, votes[j].Date)
	})
	return votes
}

func dateLess(a, b string) bool {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case okA && okB:
		return ta.Before(tb)
	case okA:
		return true
	default:
		return false
	}
}
