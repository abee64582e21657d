package kevc

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-triage-update/utils"
)

const (
	kevcURL  = "https://www.cisa.gov/sites/default/files/csv/known_exploited_vulnerabilities.csv"
	kevcDir  = "kevc"
	kevcFile = "known_exploited_vulnerabilities.csv"
)

type option func(*options)

type options struct {
	url   string
	dir   string
	appFs afero.Fs
}

func WithURL(url string) option {
	return func(opts *options) { opts.url = url }
}

func WithDir(dir string) option {
	return func(opts *options) { opts.dir = dir }
}

func WithAppFs(fs afero.Fs) option {
	return func(opts *options) { opts.appFs = fs }
}

type Config struct {
	*options
}

func NewConfig(opts ...option) Config {
	o := &options{
		url:   kevcURL,
		dir:   filepath.Join(utils.TriageDir(), kevcDir),
		appFs: afero.NewOsFs(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return Config{
		options: o,
	}
}

func (c Config) Update() error {
	ctx := context.Background()
	log.Print("Fetching Known Exploited Vulnerabilities Catalog...")

	tmpFile, err := utils.DownloadToTempFile(ctx, c.url)
	if err != nil {
		return xerrors.Errorf("failed to download KEV catalog: %w", err)
	}
	defer os.Remove(tmpFile)

	b, err := os.ReadFile(tmpFile)
	if err != nil {
		return xerrors.Errorf("failed to read the downloaded catalog: %w", err)
	}

	catalog, err := Parse(bytes.NewReader(b))
	if err != nil {
		return xerrors.Errorf("failed to parse KEV catalog: %w", err)
	}
	log.Printf("%d known exploited vulnerabilities", len(catalog))

	// the catalog is mirrored as downloaded
	if err := utils.WriteBytes(c.appFs, c.dir, kevcFile, b); err != nil {
		return xerrors.Errorf("failed to save KEV catalog: %w", err)
	}
	return nil
}

// Parse decodes the KEV catalog CSV. The header must carry a cveID column;
// any other column is optional.
func Parse(r io.Reader) (Catalog, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, xerrors.Errorf("failed to read the KEV header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	idx := columnIndex(header)
	if _, ok := idx["cveID"]; !ok {
		return nil, xerrors.New(`the KEV header has no "cveID" column`)
	}

	var catalog Catalog
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, xerrors.Errorf("failed to read a KEV record: %w", err)
		}

		catalog = append(catalog, Vulnerability{
			CveID:                      utils.TrimSpaceNewline(field(record, idx, "cveID")),
			VendorProject:              field(record, idx, "vendorProject"),
			Product:                    field(record, idx, "product"),
			VulnerabilityName:          field(record, idx, "vulnerabilityName"),
			DateAdded:                  field(record, idx, "dateAdded"),
			ShortDescription:           field(record, idx, "shortDescription"),
			RequiredAction:             field(record, idx, "requiredAction"),
			DueDate:                    field(record, idx, "dueDate"),
			KnownRansomwareCampaignUse: field(record, idx, "knownRansomwareCampaignUse"),
			Notes:                      field(record, idx, "notes"),
			CWEs:                       field(record, idx, "cwes"),
		})
	}
	return catalog, nil
}

// LoadCatalog reads a mirrored KEV catalog CSV.
func LoadCatalog(fs afero.Fs, filePath string) (Catalog, error) {
	f, err := fs.Open(filePath)
	if err != nil {
		return nil, xerrors.Errorf("unable to open the KEV catalog: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[utils.TrimSpaceNewline(name)] = i
	}
	return idx
}

func field(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
