package triage

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"golang.org/x/xerrors"
)

var reportHeader = []string{
	"cveID", "title", "maxSeverity", "knownExploited", "exploitProbability",
	"product", "impact", "severity", "exploitStatus",
}

// MarshalCSV renders the report with its fixed nine-column header. Nil scores
// become empty fields so that a missing value and an empty label stay apart.
func MarshalCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeader); err != nil {
		return nil, xerrors.Errorf("failed to write the report header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.CveID,
			r.Title,
			formatScore(r.MaxSeverity),
			strconv.FormatBool(r.KnownExploited),
			formatScore(r.ExploitProbability),
			r.Product,
			r.Impact,
			r.Severity,
			r.ExploitStatus,
		}
		if err := w.Write(row); err != nil {
			return nil, xerrors.Errorf("failed to write a report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, xerrors.Errorf("failed to flush the report: %w", err)
	}
	return buf.Bytes(), nil
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
