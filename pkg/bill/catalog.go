package bill

import "strings"

// SourceCatalog is the Record.Source of catalog bills.
const SourceCatalog = "catalog"

// stateNames maps the state codes the search form sends to jurisdiction
// names. Codes not listed here do not filter catalog results.
var stateNames = map[string]string{
	"ca": "California",
	"tx": "Texas",
	"ny": "New York",
}

// Catalog is a fixed set of bills served when OpenStates is unreachable.
type Catalog struct {
	records []Record
}

// NewCatalog builds a catalog from records, applying Normalize defaults.
func NewCatalog(records ...Record) *Catalog {
	c := &Catalog{records: make([]Record, 0, len(records))}
	for _, r := range records {
		if r.Source == "" {
			r.Source = SourceCatalog
		}
		applyDefaults(&r)
		c.records = append(c.records, r)
	}
	return c
}

// DefaultCatalog returns the built-in demo bills.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Record{
			ID:         "us-117-hr-1968",
			Identifier: "H.R. 1968",
			Title:      "Veteran Deportation Prevention and Reform Act",
			Jurisdiction: Jurisdiction{
				Name:           "United States",
				Classification: "federal",
			},
			Session:        "117",
			Subjects:       []string{"Veterans", "Immigration"},
			Classification: []string{"bill"},
			UpdatedAt:      "2023-05-15",
		},
		Record{
			ID:         "us-117-hr-3076",
			Identifier: "H.R. 3076",
			Title:      "Postal Service Reform Act of 2022",
			Jurisdiction: Jurisdiction{
				Name:           "United States",
				Classification: "federal",
			},
			Session:        "117",
			Subjects:       []string{"Government operations and politics", "Postal service"},
			Classification: []string{"bill"},
			UpdatedAt:      "2023-04-22",
		},
		Record{
			ID:         "ca-20232024-ab-1078",
			Identifier: "AB 1078",
			Title:      "Academic Freedom to Teach and Learn Act",
			Jurisdiction: Jurisdiction{
				Name:           "California",
				Classification: "state",
			},
			Session:        "20232024",
			Subjects:       []string{"Education", "Civil Rights"},
			Classification: []string{"bill"},
			UpdatedAt:      "2023-10-17",
		},
	)
}

// Len returns the number of bills in the catalog.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Lookup returns a copy of the bill with the given id.
func (c *Catalog) Lookup(id string) (*Record, bool) {
	id = strings.TrimSpace(id)
	for i := range c.records {
		if c.records[i].ID == id {
			return cloneRecord(&c.records[i]), true
		}
	}
	return nil, false
}

// Search returns copies of the bills whose identifier or title contains
// query, case-insensitively. Jurisdiction "us" keeps federal bills; a known
// state code keeps that state's bills; "" and "all" keep everything.
func (c *Catalog) Search(query, jurisdiction string) []*Record {
	query = strings.ToLower(strings.TrimSpace(query))
	jurisdiction = strings.ToLower(strings.TrimSpace(jurisdiction))

	results := make([]*Record, 0, len(c.records))
	for i := range c.records {
		r := &c.records[i]

		if query != "" &&
			!strings.Contains(strings.ToLower(r.Identifier), query) &&
			!strings.Contains(strings.ToLower(r.Title), query) {
			continue
		}

		if jurisdiction != "" && jurisdiction != "all" {
			if jurisdiction == "us" {
				if r.Jurisdiction.Classification != "federal" {
					continue
				}
			} else if name, ok := stateNames[jurisdiction]; ok && r.Jurisdiction.Name != name {
				continue
			}
		}

		results = append(results, cloneRecord(r))
	}
	return results
}

func cloneRecord(r *Record) *Record {
	c := *r
	c.Classification = append([]string{}, r.Classification...)
	c.Subjects = append([]string{}, r.Subjects...)
	c.Sponsors = append([]Sponsor{}, r.Sponsors...)
	c.Actions = make([]Action, len(r.Actions))
	for i, a := range r.Actions {
		a.Tags = append([]string{}, a.Tags...)
		c.Actions[i] = a
	}
	c.Votes = append([]Vote{}, r.Votes...)
	c.Documents = append([]Document{}, r.Documents...)
	c.Versions = append([]Document{}, r.Versions...)
	c.Sources = append([]Link{}, r.Sources...)
	if r.PrimarySponsor != nil {
		sp := *r.PrimarySponsor
		c.PrimarySponsor = &sp
	}
	return &c
}
