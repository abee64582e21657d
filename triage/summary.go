package triage

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	pink   = color.New(color.FgMagenta).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
)

// Summarize prints the known-exploited records of the report, the most
// probable exploits first.
func Summarize(w io.Writer, records []Record) {
	exploited := lo.Filter(records, func(r Record, _ int) bool { return r.KnownExploited })
	scored := 0
	for _, r := range records {
		if r.ExploitProbability != nil {
			scored++
		}
	}

	fmt.Fprintf(w, "\n%d records | Known exploited: %s | Exploit probability known: %d\n\n",
		len(records), red(len(exploited)), scored)

	if len(exploited) == 0 {
		return
	}
	slices.SortStableFunc(exploited, compareByProbability)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "CVE", "Product", "Severity", "Exploit Probability"})
	table.SetRowLine(true)
	for i, r := range exploited {
		table.Append([]string{
			strconv.Itoa(i + 1), r.CveID, r.Product,
			severityLabel(r.Severity), formatScore(r.ExploitProbability),
		})
	}
	table.Render()
}

// compareByProbability orders records by descending exploit probability.
// Records without a probability sort after the scored ones.
func compareByProbability(a, b Record) int {
	switch {
	case a.ExploitProbability == nil && b.ExploitProbability == nil:
		return 0
	case a.ExploitProbability == nil:
		return 1
	case b.ExploitProbability == nil:
		return -1
	case *a.ExploitProbability > *b.ExploitProbability:
		return -1
	case *a.ExploitProbability < *b.ExploitProbability:
		return 1
	}
	return 0
}

func severityLabel(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return red(severity)
	case "important":
		return pink(severity)
	case "moderate":
		return yellow(severity)
	case "low":
		return green(severity)
	default:
		// ignore
	}
	return severity
}
