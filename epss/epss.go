package epss

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-triage-update/utils"
)

const (
	epssURL  = "https://epss.cyentia.com/epss_scores-current.csv.gz"
	epssDir  = "epss"
	epssFile = "epss_scores-current.csv"
	retry    = 5
)

type options struct {
	url   string
	dir   string
	retry int
	appFs afero.Fs
}

type option func(*options)

func WithURL(url string) option {
	return func(opts *options) { opts.url = url }
}

func WithDir(dir string) option {
	return func(opts *options) { opts.dir = dir }
}

func WithRetry(retry int) option {
	return func(opts *options) { opts.retry = retry }
}

func WithAppFs(appFs afero.Fs) option {
	return func(opts *options) { opts.appFs = appFs }
}

type Config struct {
	*options
}

func NewConfig(opts ...option) Config {
	o := &options{
		url:   epssURL,
		dir:   filepath.Join(utils.TriageDir(), epssDir),
		retry: retry,
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
	log.Println("Fetching EPSS scores...")
	b, err := utils.FetchURL(c.url, "", c.retry)
	if err != nil {
		return xerrors.Errorf("failed to fetch the EPSS feed: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return xerrors.Errorf("failed to decompress the EPSS feed: %w", err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return xerrors.Errorf("failed to decompress the EPSS feed: %w", err)
	}

	feed, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return xerrors.Errorf("failed to parse the EPSS feed: %w", err)
	}
	if feed.Metadata.ScoreDate.IsZero() {
		log.Printf("%d EPSS scores", len(feed.Scores))
	} else {
		log.Printf("%d EPSS scores as of %s", len(feed.Scores), feed.Metadata.ScoreDate.Format("2006-01-02"))
	}

	// the feed is mirrored decompressed
	if err := utils.WriteBytes(c.appFs, c.dir, epssFile, raw); err != nil {
		return xerrors.Errorf("failed to write the EPSS feed: %w", err)
	}
	return nil
}

// Parse decodes an EPSS snapshot. A leading comment line such as
// "#model_version:v2023.03.01,score_date:2024-03-20T00:00:00+0000" is
// optional and carries the feed metadata.
func Parse(r io.Reader) (*Feed, error) {
	br := bufio.NewReader(r)

	var meta Metadata
	if p, err := br.Peek(1); err == nil && p[0] == '#' {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, xerrors.Errorf("failed to read the EPSS metadata: %w", err)
		}
		if meta, err = parseMetadata(line); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	header, err := reader.Read()
	if err != nil {
		return nil, xerrors.Errorf("failed to read the EPSS header: %w", err)
	}

	index := map[string]int{}
	for i, name := range header {
		index[utils.TrimSpaceNewline(name)] = i
	}
	cveIdx, ok := index["cve"]
	if !ok {
		return nil, xerrors.New(`the EPSS header has no "cve" column`)
	}
	epssIdx, ok := index["epss"]
	if !ok {
		return nil, xerrors.New(`the EPSS header has no "epss" column`)
	}
	percentileIdx, hasPercentile := index["percentile"]

	feed := &Feed{
		Metadata: meta,
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, xerrors.Errorf("failed to read an EPSS record: %w", err)
		}

		cveID := utils.TrimSpaceNewline(record[cveIdx])
		score, err := strconv.ParseFloat(record[epssIdx], 64)
		if err != nil {
			return nil, xerrors.Errorf("failed to parse the EPSS score of %s: %w", cveID, err)
		}
		s := Score{
			CVE:  cveID,
			EPSS: score,
		}
		if hasPercentile {
			if s.Percentile, err = strconv.ParseFloat(record[percentileIdx], 64); err != nil {
				return nil, xerrors.Errorf("failed to parse the EPSS percentile of %s: %w", cveID, err)
			}
		}
		feed.Scores = append(feed.Scores, s)
	}
	return feed, nil
}

func parseMetadata(line string) (Metadata, error) {
	var meta Metadata
	line = strings.TrimPrefix(utils.TrimSpaceNewline(line), "#")
	for _, part := range strings.Split(line, ",") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "model_version":
			meta.ModelVersion = strings.TrimSpace(kv[1])
		case "score_date":
			t, err := dateparse.ParseAny(strings.TrimSpace(kv[1]))
			if err != nil {
				return Metadata{}, xerrors.Errorf("failed to parse the EPSS score date: %w", err)
			}
			meta.ScoreDate = t
		}
	}
	return meta, nil
}

// LoadFeed reads a mirrored EPSS snapshot from filePath.
func LoadFeed(fs afero.Fs, filePath string) (*Feed, error) {
	f, err := fs.Open(filePath)
	if err != nil {
		return nil, xerrors.Errorf("unable to open the EPSS feed: %w", err)
	}
	defer f.Close()

	return Parse(f)
}
