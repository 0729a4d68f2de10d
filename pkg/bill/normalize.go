package bill

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Format names the shape of a raw bill payload.
type Format string

const (
	// FormatOpenStates is the v3 bill detail with include blocks.
	FormatOpenStates Format = "openstates"

	// FormatSearchResult is one element of a v3 search results list.
	FormatSearchResult Format = "search"

	// FormatCanonical is a previously normalized Record, as cached.
	FormatCanonical Format = "canonical"
)

// ErrUnknownFormat is returned by Normalize for an unsupported Format.
var ErrUnknownFormat = errors.New("unknown bill format")

// Normalize decodes raw in the given format into a canonical Record.
func Normalize(raw []byte, format Format) (*Record, error) {
	switch format {
	case FormatOpenStates, FormatSearchResult:
		var b rawBill
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode %s bill: %w", format, err)
		}
		r := fromRaw(&b)
		r.Source = string(format)
		applyDefaults(r)
		return r, nil

	case FormatCanonical:
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode %s bill: %w", format, err)
		}
		applyDefaults(&r)
		return &r, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func fromRaw(b *rawBill) *Record {
	r := &Record{
		ID:               strings.TrimSpace(b.ID),
		Title:            strings.TrimSpace(b.Title),
		Identifier:       strings.TrimSpace(b.Identifier),
		Abstract:         strings.TrimSpace(b.Abstract),
		Session:          strings.TrimSpace(b.Session),
		Classification:   b.Classification,
		Subjects:         b.Subject,
		FromOrganization: b.FromOrganization.String(),
		UpdatedAt:        b.UpdatedAt,
		Sources:          b.Sources,
	}

	if len(r.Subjects) == 0 {
		r.Subjects = b.Subjects
	}

	for _, a := range b.Abstracts {
		if text := strings.TrimSpace(a.Abstract); text != "" {
			r.Abstract = text
			break
		}
	}

	if b.Jurisdiction != nil {
		r.Jurisdiction = Jurisdiction{
			ID:             b.Jurisdiction.ID,
			Name:           strings.TrimSpace(b.Jurisdiction.Name),
			Classification: b.Jurisdiction.Classification,
		}
	}

	r.Sponsors = make([]Sponsor, 0, len(b.Sponsorships))
	for _, s := range b.Sponsorships {
		sp := Sponsor{
			Name:           strings.TrimSpace(s.Name),
			ID:             s.ID,
			Classification: s.Classification,
			Primary:        s.Primary,
		}
		if s.Person != nil {
			if sp.Name == "" {
				sp.Name = strings.TrimSpace(s.Person.Name)
			}
			if sp.ID == "" {
				sp.ID = s.Person.ID
			}
		}
		r.Sponsors = append(r.Sponsors, sp)
	}

	r.Actions = make([]Action, 0, len(b.Actions))
	for _, a := range b.Actions {
		r.Actions = append(r.Actions, Action{
			Date:         a.Date,
			Description:  strings.TrimSpace(a.Description),
			Organization: a.Organization.String(),
			Tags:         a.Classification,
		})
	}

	r.Votes = make([]Vote, 0, len(b.Votes))
	for _, v := range b.Votes {
		date := v.StartDate
		if date == "" {
			date = v.Date
		}
		motion := strings.TrimSpace(v.MotionText)
		if motion == "" {
			motion = strings.TrimSpace(v.Identifier)
		}
		r.Votes = append(r.Votes, Vote{
			ID:           v.ID,
			Date:         date,
			Motion:       motion,
			Result:       strings.TrimSpace(v.Result),
			Organization: v.Organization.String(),
			Counts:       VoteTotals(v.Counts),
		})
	}

	r.Documents = documents(b.Documents)
	r.Versions = documents(b.Versions)

	return r
}

func documents(raw []rawDocument) []Document {
	docs := make([]Document, 0, len(raw))
	for _, d := range raw {
		docs = append(docs, Document{
			Note: strings.TrimSpace(d.Note),
			Date: d.Date,
			URL:  d.resolvedURL(),
		})
	}
	return docs
}

// applyDefaults fills every default Normalize guarantees. It is idempotent.
func applyDefaults(r *Record) {
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.Identifier == "" {
		r.Identifier = lastSegment(r.ID)
	}
	if r.Abstract == "" {
		r.Abstract = DefaultAbstract
	}
	if r.Jurisdiction.Name == "" {
		r.Jurisdiction.Name = Unknown
	}
	if r.FromOrganization == "" {
		r.FromOrganization = Unknown
	}

	r.Classification = nonNil(r.Classification)
	r.Subjects = nonNil(r.Subjects)
	if r.Sponsors == nil {
		r.Sponsors = []Sponsor{}
	}
	if r.Actions == nil {
		r.Actions = []Action{}
	}
	if r.Votes == nil {
		r.Votes = []Vote{}
	}
	if r.Documents == nil {
		r.Documents = []Document{}
	}
	if r.Versions == nil {
		r.Versions = []Document{}
	}
	if r.Sources == nil {
		r.Sources = []Link{}
	}

	for i := range r.Sponsors {
		if r.Sponsors[i].Name == "" {
			r.Sponsors[i].Name = Unknown
		}
	}
	for i := range r.Actions {
		a := &r.Actions[i]
		a.Tags = nonNil(a.Tags)
		if a.Organization == "" {
			a.Organization = Unknown
		}
	}
	for i := range r.Votes {
		v := &r.Votes[i]
		if v.Result == "" {
			v.Result = DefaultVoteResult
		}
		if v.Organization == "" {
			v.Organization = Unknown
		}
		v.Counts = clampTotals(v.Counts)
	}

	if r.PrimarySponsor == nil {
		r.PrimarySponsor = primarySponsor(r.Sponsors)
	}
}

func primarySponsor(sponsors []Sponsor) *Sponsor {
	for _, s := range sponsors {
		if s.Primary {
			sp := s
			return &sp
		}
	}
	if len(sponsors) > 0 {
		sp := sponsors[0]
		return &sp
	}
	return nil
}

func clampTotals(t VoteTotals) VoteTotals {
	return VoteTotals{
		Yes:     max(t.Yes, 0),
		No:      max(t.No, 0),
		Abstain: max(t.Abstain, 0),
		Other:   max(t.Other, 0),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func lastSegment(id string) string {
	id = strings.Trim(strings.TrimSpace(id), "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
