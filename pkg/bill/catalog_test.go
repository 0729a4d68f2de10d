package bill

import "testing"

func TestCatalog_Lookup(t *testing.T) {
	c := DefaultCatalog()

	r, ok := c.Lookup("us-117-hr-1968")
	if !ok {
		t.Fatal("Lookup(us-117-hr-1968) not found")
	}
	if r.Title != "Veteran Deportation Prevention and Reform Act" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Source != SourceCatalog || r.Abstract != DefaultAbstract || r.Actions == nil {
		t.Errorf("catalog record not normalized: %+v", r)
	}

	r.Subjects[0] = "mutated"
	again, _ := c.Lookup("us-117-hr-1968")
	if again.Subjects[0] != "Veterans" {
		t.Error("Lookup must return a copy")
	}

	if _, ok := c.Lookup("missing"); ok {
		t.Error("Lookup(missing) should report absent")
	}
}

func TestCatalog_Search(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name         string
		query        string
		jurisdiction string
		want         []string
	}{
		{name: "all", want: []string{"us-117-hr-1968", "us-117-hr-3076", "ca-20232024-ab-1078"}},
		{name: "title match", query: "postal", want: []string{"us-117-hr-3076"}},
		{name: "identifier match", query: "ab 1078", want: []string{"ca-20232024-ab-1078"}},
		{name: "federal only", jurisdiction: "us", want: []string{"us-117-hr-1968", "us-117-hr-3076"}},
		{name: "state code", jurisdiction: "ca", want: []string{"ca-20232024-ab-1078"}},
		{name: "mapped state without bills", jurisdiction: "tx", want: []string{}},
		{name: "unmapped code does not filter", query: "act", jurisdiction: "zz", want: []string{"us-117-hr-1968", "us-117-hr-3076", "ca-20232024-ab-1078"}},
		{name: "explicit all", query: "ACT", jurisdiction: "all", want: []string{"us-117-hr-1968", "us-117-hr-3076", "ca-20232024-ab-1078"}},
		{name: "no match", query: "spaceport", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Search(tt.query, tt.jurisdiction)
			if got == nil {
				t.Fatal("Search returned nil")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search() returned %d bills, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.ID != tt.want[i] {
					t.Errorf("result[%d] = %s, want %s", i, r.ID, tt.want[i])
				}
			}
		})
	}
}
