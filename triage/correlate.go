package triage

import (
	"github.com/samber/lo"

	"github.com/aquasecurity/vuln-triage-update/cvrf"
)

// Correlate joins advisory vulnerabilities with the known-exploited catalog
// and the exploit probability index. Records come out in document order, one
// per advisory vulnerability.
func Correlate(docs []cvrf.Document, exploited map[string]struct{}, probability map[string]float64) []Record {
	var records []Record
	for _, doc := range docs {
		for _, vuln := range doc.Vulnerability {
			records = append(records, newRecord(vuln, exploited, probability))
		}
	}
	return records
}

func newRecord(vuln cvrf.Vulnerability, exploited map[string]struct{}, probability map[string]float64) Record {
	r := Record{
		CveID:       vuln.CVE,
		Title:       vuln.Title.Value,
		MaxSeverity: maxBaseScore(vuln.CVSSScoreSets),
	}

	_, r.KnownExploited = exploited[vuln.CVE]
	if p, ok := probability[vuln.CVE]; ok {
		r.ExploitProbability = &p
	}

	// the last threat of each type wins
	for _, threat := range vuln.Threats {
		switch threat.Type {
		case cvrf.ThreatTypeImpact:
			r.Impact = threat.Description.Value
		case cvrf.ThreatTypeExploitStatus:
			r.ExploitStatus = threat.Description.Value
		case cvrf.ThreatTypeSeverity:
			r.Severity = threat.Description.Value
		default:
			// ignore
		}
	}

	if note, ok := lo.Find(vuln.Notes, func(n cvrf.Note) bool {
		return n.Type == cvrf.NoteTypeProduct
	}); ok {
		r.Product = note.Value
	}

	return r
}

func maxBaseScore(sets []cvrf.CVSSScoreSet) *float64 {
	if len(sets) == 0 {
		return nil
	}
	highest := lo.Max(lo.Map(sets, func(s cvrf.CVSSScoreSet, _ int) float64 {
		return s.BaseScore
	}))
	return &highest
}
