package bill

import "strings"

// Default values applied by Normalize.
const (
	DefaultTitle      = "Untitled"
	DefaultAbstract   = "No abstract available"
	Unknown           = "Unknown"
	DefaultVoteResult = "unknown"
)

// Record is the canonical bill shape returned by the service and stored in
// the bills namespace.
type Record struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Identifier       string       `json:"identifier"`
	Abstract         string       `json:"abstract"`
	Session          string       `json:"session"`
	Jurisdiction     Jurisdiction `json:"jurisdiction"`
	Classification   []string     `json:"classification"`
	Subjects         []string     `json:"subjects"`
	FromOrganization string       `json:"from_organization"`
	PrimarySponsor   *Sponsor     `json:"primary_sponsor,omitempty"`
	Sponsors         []Sponsor    `json:"sponsors"`
	Actions          []Action     `json:"actions"`
	Votes            []Vote       `json:"votes"`
	Documents        []Document   `json:"documents"`
	Versions         []Document   `json:"versions"`
	Sources          []Link       `json:"sources"`
	UpdatedAt        string       `json:"updated_at,omitempty"`
	Source           string       `json:"source,omitempty"`
}

// Jurisdiction identifies the legislature a bill belongs to.
type Jurisdiction struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Classification string `json:"classification,omitempty"`
}

// Sponsor is a person or organization sponsoring a bill.
type Sponsor struct {
	Name           string `json:"name"`
	ID             string `json:"id,omitempty"`
	Classification string `json:"classification,omitempty"`
	Primary        bool   `json:"primary"`
}

// Action is one step of a bill's legislative history.
type Action struct {
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	Organization string   `json:"organization"`
	Tags         []string `json:"tags"`
}

// Vote is one recorded vote event on a bill.
type Vote struct {
	ID           string     `json:"id,omitempty"`
	Date         string     `json:"date"`
	Motion       string     `json:"motion"`
	Result       string     `json:"result"`
	Organization string     `json:"organization"`
	Counts       VoteTotals `json:"counts"`
}

// VoteTotals aggregates vote options. Options other than yes, no and abstain
// are summed into Other.
type VoteTotals struct {
	Yes     int `json:"yes"`
	No      int `json:"no"`
	Abstain int `json:"abstain"`
	Other   int `json:"other"`
}

// Document is a bill document or version with a resolved URL.
type Document struct {
	Note string `json:"note"`
	Date string `json:"date,omitempty"`
	URL  string `json:"url"`
}

// Link is a source reference.
type Link struct {
	URL  string `json:"url"`
	Note string `json:"note,omitempty"`
}

// Empty reports whether r carries no usable bill. A nil record, or one with
// neither an ID nor a real title, is empty.
func Empty(r *Record) bool {
	if r == nil {
		return true
	}
	title := strings.TrimSpace(r.Title)
	return strings.TrimSpace(r.ID) == "" && (title == "" || title == DefaultTitle)
}

// HasAbstract reports whether r carries an abstract from its source rather
// than the default placeholder.
func HasAbstract(r *Record) bool {
	if r == nil {
		return false
	}
	a := strings.TrimSpace(r.Abstract)
	return a != "" && a != DefaultAbstract
}
