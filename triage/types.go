package triage

// Record is one row of the triage report, a denormalized join of a single
// advisory vulnerability with the exploitation feeds. MaxSeverity is nil when
// the advisory carries no CVSS score set, and ExploitProbability is nil when
// the CVE ID has no EPSS score.
type Record struct {
	CveID              string
	Title              string
	MaxSeverity        *float64
	KnownExploited     bool
	ExploitProbability *float64
	Product            string
	Impact             string
	Severity           string
	ExploitStatus      string
}
