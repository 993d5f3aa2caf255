package claims

// ProviderFeatureNames lists the columns returned by ProviderFeatures.
var ProviderFeatureNames = []string{
	"claim_count",
	"mean_reimbursed",
	"distinct_patients",
	"distinct_physicians",
	"inpatient_share",
	"deceased_patient_share",
	"mean_claim_days",
}

type providerAgg struct {
	claims     int
	reimbursed float64
	inpatient  int
	days       float64
	dated      int
	patients   map[string]bool
	physicians map[string]bool
}

// ProviderFeatures aggregates claim and beneficiary columns per provider.
// Claims without a provider are ignored.
func (d *Dataset) ProviderFeatures() map[string][]float64 {
	aggs := make(map[string]*providerAgg)
	for _, c := range d.Claims {
		if c.Provider == "" {
			continue
		}
		a, ok := aggs[c.Provider]
		if !ok {
			a = &providerAgg{patients: make(map[string]bool), physicians: make(map[string]bool)}
			aggs[c.Provider] = a
		}
		a.claims++
		a.reimbursed += c.Reimbursed
		if c.Source == SourceInpatient {
			a.inpatient++
		}
		if !c.Start.IsZero() && !c.End.IsZero() {
			a.days += c.End.Sub(c.Start).Hours() / 24
			a.dated++
		}
		if c.Patient != "" {
			a.patients[c.Patient] = true
		}
		for _, ph := range []string{c.AttendingPhysician, c.OperatingPhysician, c.OtherPhysician} {
			if ph != "" {
				a.physicians[ph] = true
			}
		}
	}

	out := make(map[string][]float64, len(aggs))
	for provider, a := range aggs {
		deceased := 0
		for p := range a.patients {
			if b, ok := d.Beneficiaries[p]; ok && !b.Death.IsZero() {
				deceased++
			}
		}
		deceasedShare := 0.0
		if len(a.patients) > 0 {
			deceasedShare = float64(deceased) / float64(len(a.patients))
		}
		meanDays := 0.0
		if a.dated > 0 {
			meanDays = a.days / float64(a.dated)
		}
		n := float64(a.claims)
		out[provider] = []float64{
			n,
			a.reimbursed / n,
			float64(len(a.patients)),
			float64(len(a.physicians)),
			float64(a.inpatient) / n,
			deceasedShare,
			meanDays,
		}
	}
	return out
}
