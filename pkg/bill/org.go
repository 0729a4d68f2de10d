package bill

import (
	"bytes"
	"encoding/json"
	"strings"
)

// OrgKind tags the shape an organization field arrived in.
type OrgKind int

const (
	// OrgAbsent means the field was missing, null or unusable.
	OrgAbsent OrgKind = iota
	// OrgName means the field was a plain string.
	OrgName
	// OrgObject means the field was an object with a name.
	OrgObject
)

// OrgRef is an organization reference that upstream payloads encode either
// as "Senate Committee" or as {"name": "Senate Committee", ...}.
type OrgRef struct {
	Kind OrgKind
	Name string
	ID   string
}

// UnmarshalJSON decodes a string, an object or null. Any other JSON value
// decodes to OrgAbsent rather than failing the whole bill.
func (o *OrgRef) UnmarshalJSON(data []byte) error {
	*o = OrgRef{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		if name = strings.TrimSpace(name); name != "" {
			*o = OrgRef{Kind: OrgName, Name: name}
		}
	case '{':
		var obj struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if name := strings.TrimSpace(obj.Name); name != "" {
			*o = OrgRef{Kind: OrgObject, Name: name, ID: obj.ID}
		}
	}
	return nil
}

// String resolves the reference to a display name.
func (o OrgRef) String() string {
	switch o.Kind {
	case OrgName, OrgObject:
		return o.Name
	case OrgAbsent:
		return Unknown
	default:
		return Unknown
	}
}
