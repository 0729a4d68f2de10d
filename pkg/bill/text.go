package bill

import (
	"fmt"
	"strings"
)

// TextURL returns the URL of the bill's full text: the first version with a
// URL, else the first document with one, else "".
func TextURL(r *Record) string {
	if r == nil {
		return ""
	}
	for _, v := range r.Versions {
		if v.URL != "" {
			return v.URL
		}
	}
	for _, d := range r.Documents {
		if d.URL != "" {
			return d.URL
		}
	}
	return ""
}

// AbstractText renders the abstract as a markdown stand-in for the full
// text. It returns "" when the record has no real abstract.
func AbstractText(r *Record) string {
	if !HasAbstract(r) {
		return ""
	}
	return fmt.Sprintf("# %s: %s\n\n## Abstract\n\n%s", r.Identifier, r.Title, r.Abstract)
}

// Context renders the bill as the plain-text briefing handed to the chat
// model.
func Context(r *Record) string {
	if r == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("BILL INFORMATION:\n")
	fmt.Fprintf(&b, "Title: %s\n", orUnknown(r.Title))
	fmt.Fprintf(&b, "Identifier: %s\n", orUnknown(r.Identifier))
	fmt.Fprintf(&b, "Session: %s\n", orUnknown(r.Session))
	fmt.Fprintf(&b, "Jurisdiction: %s\n", orUnknown(r.Jurisdiction.Name))
	if r.PrimarySponsor != nil && r.PrimarySponsor.Name != "" && r.PrimarySponsor.Name != Unknown {
		fmt.Fprintf(&b, "Primary Sponsor: %s\n", r.PrimarySponsor.Name)
	}

	if HasAbstract(r) {
		fmt.Fprintf(&b, "\nABSTRACT:\n%s\n", r.Abstract)
	}

	if actions := History(r); len(actions) > 0 {
		b.WriteString("\nLEGISLATIVE HISTORY:\n")
		for _, a := range actions {
			fmt.Fprintf(&b, "%s: %s", displayDate(a.Date), a.Description)
			if len(a.Tags) > 0 {
				fmt.Fprintf(&b, " [%s]", strings.Join(a.Tags, ", "))
			}
			b.WriteString("\n")
		}
	}

	if votes := VoteHistory(r); len(votes) > 0 {
		b.WriteString("\nVOTES:\n")
		for _, v := range votes {
			fmt.Fprintf(&b, "%s: Result: %s (Yes: %d, No: %d, Abstain: %d)\n",
				displayDate(v.Date), v.Result, v.Counts.Yes, v.Counts.No, v.Counts.Abstain)
		}
	}

	return b.String()
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func displayDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format("2006-01-02")
	}
	if s == "" {
		return Unknown
	}
	return s
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}
