package kevc

// Catalog is the parsed Known Exploited Vulnerabilities catalog.
type Catalog []Vulnerability

type Vulnerability struct {
	CveID                      string
	VendorProject              string
	Product                    string
	VulnerabilityName          string
	DateAdded                  string
	ShortDescription           string
	RequiredAction             string
	DueDate                    string
	KnownRansomwareCampaignUse string
	Notes                      string
	CWEs                       string
}

// CveIDSet returns the catalog identifiers as a set for membership tests.
func (c Catalog) CveIDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c))
	for _, v := range c {
		set[v.CveID] = struct{}{}
	}
	return set
}
