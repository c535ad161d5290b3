package devhub

import "fmt"

// Limits is the capacity snapshot returned by the limits endpoint. It is read
// once at the start of a pool run; the plan built from it is not re-validated
// against capacity consumed elsewhere while the run is in flight.
type Limits struct {
	ActiveScratchOrgs struct {
		Remaining int `json:"Remaining"`
		Max       int `json:"Max"`
	} `json:"ActiveScratchOrgs"`
}

// IPRange is a dotted-quad inclusive bound pair for a network access setting.
type IPRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

func (r IPRange) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// SignupRequest describes one scratch org creation.
type SignupRequest struct {
	Alias          string
	DefinitionPath string
	ExpiryDays     int
	ClientID       string // correlation id stamped on the signup
}

// OrgInfo is what the signup API reports for a created org. AuthCode is a
// single-use token for the new org, consumed to build its stored auth URL.
type OrgInfo struct {
	OrgID          string `json:"Id"`
	Username       string `json:"SignupUsername"`
	LoginURL       string `json:"LoginUrl"`
	AuthCode       string `json:"AuthCode"`
	ExpirationDate string `json:"ExpirationDate"`
}

// Record is a raw row from the object-query service.
type Record map[string]any

// ID returns the row id, or "" when absent.
func (r Record) ID() string { return r.Str("Id") }

// Str returns the named field as a string, "" for null or missing fields.
func (r Record) Str(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return s
}

type queryResponse struct {
	TotalSize int      `json:"totalSize"`
	Done      bool     `json:"done"`
	Records   []Record `json:"records"`
}

type describeResponse struct {
	Fields []struct {
		Name          string `json:"name"`
		PicklistValues []struct {
			Value  string `json:"value"`
			Active bool   `json:"active"`
		} `json:"picklistValues"`
	} `json:"fields"`
}
