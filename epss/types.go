package epss

import "time"

// Metadata holds the fields the scoring model publishes in the comment line
// of each daily snapshot.
type Metadata struct {
	ModelVersion string
	ScoreDate    time.Time
}

type Score struct {
	CVE        string
	EPSS       float64
	Percentile float64
}

type Feed struct {
	Metadata Metadata
	Scores   []Score
}

// Index maps CVE IDs to their exploit probability. The first score seen for
// a CVE ID wins.
func (f *Feed) Index() map[string]float64 {
	idx := make(map[string]float64, len(f.Scores))
	for _, s := range f.Scores {
		if _, ok := idx[s.CVE]; ok {
			continue
		}
		idx[s.CVE] = s.EPSS
	}
	return idx
}
