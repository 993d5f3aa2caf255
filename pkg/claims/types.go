package claims

import "time"

// Source tells which claims table a row came from.
type Source string

const (
	SourceInpatient  Source = "inpatient"
	SourceOutpatient Source = "outpatient"
)

// Claim is one normalised claim row. Missing identifiers are empty strings.
type Claim struct {
	ID                 string
	Source             Source
	Provider           string
	Patient            string
	AttendingPhysician string
	OperatingPhysician string
	OtherPhysician     string
	Reimbursed         float64
	Deductible         float64
	Start              time.Time
	End                time.Time
}

// Beneficiary holds the demographic columns used for provider features.
type Beneficiary struct {
	ID     string
	Birth  time.Time
	Death  time.Time // zero while alive
	Gender string
	State  string
}

// Dataset is the joined input of one pipeline run.
type Dataset struct {
	Claims        []Claim
	Beneficiaries map[string]Beneficiary
	Labels        map[string]int // provider -> 0/1
}

// Providers returns the distinct non-missing providers appearing on claims,
// in first-seen order.
func (d *Dataset) Providers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range d.Claims {
		if c.Provider == "" || seen[c.Provider] {
			continue
		}
		seen[c.Provider] = true
		out = append(out, c.Provider)
	}
	return out
}
