package triage

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-triage-update/cvrf"
	"github.com/aquasecurity/vuln-triage-update/epss"
	"github.com/aquasecurity/vuln-triage-update/kevc"
	"github.com/aquasecurity/vuln-triage-update/utils"
)

const (
	triageDir  = "triage"
	reportFile = "triage.csv"
)

type options struct {
	cvrfDir  string
	kevcPath string
	epssPath string
	dir      string
	appFs    afero.Fs
	out      io.Writer
}

type option func(*options)

func WithCvrfDir(dir string) option {
	return func(opts *options) { opts.cvrfDir = dir }
}

func WithKevcPath(path string) option {
	return func(opts *options) { opts.kevcPath = path }
}

func WithEpssPath(path string) option {
	return func(opts *options) { opts.epssPath = path }
}

func WithDir(dir string) option {
	return func(opts *options) { opts.dir = dir }
}

func WithAppFs(appFs afero.Fs) option {
	return func(opts *options) { opts.appFs = appFs }
}

func WithWriter(w io.Writer) option {
	return func(opts *options) { opts.out = w }
}

type Config struct {
	*options
}

func NewConfig(opts ...option) Config {
	o := &options{
		cvrfDir:  filepath.Join(utils.TriageDir(), "cvrf"),
		kevcPath: filepath.Join(utils.TriageDir(), "kevc", "known_exploited_vulnerabilities.csv"),
		epssPath: filepath.Join(utils.TriageDir(), "epss", "epss_scores-current.csv"),
		dir:      filepath.Join(utils.TriageDir(), triageDir),
		appFs:    afero.NewOsFs(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return Config{
		options: o,
	}
}

// Build loads the three mirrored feeds and writes the denormalized report.
// Any missing or malformed input aborts the build before the report file is
// touched.
func (c Config) Build() error {
	log.Println("Building the triage report...")
	docs, err := cvrf.LoadDocuments(c.appFs, c.cvrfDir)
	if err != nil {
		return xerrors.Errorf("failed to load advisory documents: %w", err)
	}
	catalog, err := kevc.LoadCatalog(c.appFs, c.kevcPath)
	if err != nil {
		return xerrors.Errorf("failed to load the KEV catalog: %w", err)
	}
	feed, err := epss.LoadFeed(c.appFs, c.epssPath)
	if err != nil {
		return xerrors.Errorf("failed to load the EPSS feed: %w", err)
	}

	records := Correlate(docs, catalog.CveIDSet(), feed.Index())
	b, err := MarshalCSV(records)
	if err != nil {
		return xerrors.Errorf("failed to marshal the report: %w", err)
	}
	if err := utils.WriteBytes(c.appFs, c.dir, reportFile, b); err != nil {
		return xerrors.Errorf("failed to write the report: %w", err)
	}
	log.Printf("%d triage records", len(records))

	Summarize(c.out, records)
	return nil
}
