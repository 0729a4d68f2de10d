package bill

import (
	"bytes"
	"encoding/json"
	"strings"
)

// rawBill is the OpenStates v3 bill object. Search results use the same
// object without the include blocks; the mock catalog and older clients use
// the flat abstract and subjects fields.
type rawBill struct {
	ID               string           `json:"id"`
	Identifier       string           `json:"identifier"`
	Title            string           `json:"title"`
	Abstract         string           `json:"abstract"`
	Abstracts        []rawAbstract    `json:"abstracts"`
	Session          string           `json:"session"`
	Jurisdiction     *rawJurisdiction `json:"jurisdiction"`
	Classification   []string         `json:"classification"`
	Subject          []string         `json:"subject"`
	Subjects         []string         `json:"subjects"`
	FromOrganization OrgRef           `json:"from_organization"`
	Sponsorships     []rawSponsorship `json:"sponsorships"`
	Actions          []rawAction      `json:"actions"`
	Votes            []rawVote        `json:"votes"`
	Documents        []rawDocument    `json:"documents"`
	Versions         []rawDocument    `json:"versions"`
	Sources          []Link           `json:"sources"`
	UpdatedAt        string           `json:"updated_at"`
}

type rawAbstract struct {
	Abstract string `json:"abstract"`
	Note     string `json:"note"`
}

type rawJurisdiction struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
}

type rawSponsorship struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
	Primary        bool   `json:"primary"`
	Person         *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"person"`
}

type rawAction struct {
	Date           string   `json:"date"`
	Description    string   `json:"description"`
	Organization   OrgRef   `json:"organization"`
	Classification []string `json:"classification"`
}

type rawVote struct {
	ID           string    `json:"id"`
	Identifier   string    `json:"identifier"`
	MotionText   string    `json:"motion_text"`
	StartDate    string    `json:"start_date"`
	Date         string    `json:"date"`
	Result       string    `json:"result"`
	Organization OrgRef    `json:"organization"`
	Counts       rawCounts `json:"counts"`
}

type rawDocument struct {
	Note  string `json:"note"`
	Date  string `json:"date"`
	URL   string `json:"url"`
	Links []struct {
		URL       string `json:"url"`
		MediaType string `json:"media_type"`
	} `json:"links"`
}

func (d rawDocument) resolvedURL() string {
	if u := strings.TrimSpace(d.URL); u != "" {
		return u
	}
	if len(d.Links) > 0 {
		return strings.TrimSpace(d.Links[0].URL)
	}
	return ""
}

// rawCounts accepts the v3 list form [{"option":"yes","value":3}] and the
// summarized object form {"yes":3,"no":1}.
type rawCounts VoteTotals

func (c *rawCounts) UnmarshalJSON(data []byte) error {
	*c = rawCounts{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '[':
		var options []struct {
			Option string `json:"option"`
			Value  int    `json:"value"`
		}
		if err := json.Unmarshal(data, &options); err != nil {
			return err
		}
		for _, o := range options {
			c.add(o.Option, o.Value)
		}
	case '{':
		var totals map[string]int
		if err := json.Unmarshal(data, &totals); err != nil {
			return err
		}
		for option, value := range totals {
			c.add(option, value)
		}
	}
	return nil
}

func (c *rawCounts) add(option string, value int) {
	if value < 0 {
		value = 0
	}
	switch strings.ToLower(strings.TrimSpace(option)) {
	case "yes":
		c.Yes += value
	case "no":
		c.No += value
	case "abstain":
		c.Abstain += value
	default:
		c.Other += value
	}
}
