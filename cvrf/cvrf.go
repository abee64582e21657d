package cvrf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cheggaaa/pb/v3"
	version "github.com/hashicorp/go-version"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-triage-update/utils"
)

const (
	cvrfURL     = "https://api.msrc.microsoft.com/cvrf/v2.0/cvrf/"
	cvrfDir     = "cvrf"
	retry       = 5
	concurrency = 5
	wait        = 1

	// monthKeyFormat is the tracking-ID layout of monthly documents, e.g. "2024-Jan".
	monthKeyFormat = "2006-Jan"
)

// monthlyDocRegexp matches index links to monthly documents, with or without
// the .json suffix mirrors add.
var monthlyDocRegexp = regexp.MustCompile(`^\d{4}-[A-Z][a-z]{2}(\.json)?$`)

type option func(*options)

type options struct {
	baseURL *url.URL
	dir     string
	retry   int
	appFs   afero.Fs
}

func WithBaseURL(u *url.URL) option {
	return func(opts *options) { opts.baseURL = u }
}

func WithDir(dir string) option {
	return func(opts *options) { opts.dir = dir }
}

func WithRetry(retry int) option {
	return func(opts *options) { opts.retry = retry }
}

func WithAppFs(fs afero.Fs) option {
	return func(opts *options) { opts.appFs = fs }
}

type Config struct {
	*options
}

func NewConfig(opts ...option) Config {
	o := &options{
		baseURL: lo.Must(url.Parse(cvrfURL)),
		dir:     filepath.Join(utils.TriageDir(), cvrfDir),
		retry:   retry,
		appFs:   afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return Config{
		options: o,
	}
}

func (c Config) Update() error {
	log.Print("Fetching advisory documents...")

	docNames, err := c.listDocuments()
	if err != nil {
		return xerrors.Errorf("failed to list advisory documents: %w", err)
	}

	urls := make([]string, 0, len(docNames))
	for _, name := range docNames {
		urls = append(urls, c.baseURL.JoinPath(name).String())
	}

	docJSONs, err := utils.FetchConcurrently(urls, concurrency, wait, c.retry)
	if err != nil {
		log.Printf("failed to fetch advisory documents. err: %s", err)
	}

	var docs []Document
	for _, docJSON := range docJSONs {
		if len(docJSON) == 0 {
			log.Println("empty advisory document")
			continue
		}

		var doc Document
		if err = json.Unmarshal(docJSON, &doc); err != nil {
			return xerrors.Errorf("failed to decode advisory document: %w", err)
		}
		docs = append(docs, doc)
	}

	bar := pb.StartNew(len(docs))
	for _, doc := range docs {
		if err = c.save(doc); err != nil {
			return xerrors.Errorf("failed to save advisory document: %w", err)
		}
		bar.Increment()
	}
	bar.Finish()

	return nil
}

func (c Config) listDocuments() ([]string, error) {
	b, err := utils.FetchURL(c.baseURL.String(), "", c.retry)
	if err != nil {
		return nil, xerrors.Errorf("failed to get a list of documents: %w", err)
	}

	index, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, xerrors.Errorf("failed to read a list of documents: %w", err)
	}

	var names []string
	index.Find("a").Each(func(_ int, s *goquery.Selection) {
		if name := monthlyDocRegexp.FindString(s.Text()); name != "" {
			names = append(names, name)
		}
	})

	if len(names) == 0 {
		return nil, xerrors.Errorf("failed to get a list of documents: list is empty")
	}
	return names, nil
}

func (c Config) save(doc Document) error {
	docID := doc.DocumentTracking.Identification.ID.Value
	if docID == "" {
		log.Print("skip advisory document without a tracking ID")
		return nil
	}

	fileName := fmt.Sprintf("%s.json", docID)
	filePath := filepath.Join(c.dir, fileName)
	ok, err := afero.Exists(c.appFs, filePath)
	if err != nil {
		return xerrors.Errorf("error in file existence check: %w", err)
	} else if ok && !c.shouldOverwrite(filePath, doc.DocumentTracking.Version) {
		log.Printf("skip %s: the mirrored document is newer", docID)
		return nil
	}

	if err := utils.WriteJSON(c.appFs, c.dir, fileName, doc); err != nil {
		return xerrors.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (c Config) shouldOverwrite(filePath string, currentVersion string) bool {
	b, err := afero.ReadFile(c.appFs, filePath)
	if err != nil {
		return true
	}

	var saved Document
	if err = json.Unmarshal(b, &saved); err != nil {
		return true
	}
	if saved.DocumentTracking.Version == "" {
		return true
	}

	prev, err := version.NewVersion(saved.DocumentTracking.Version)
	if err != nil {
		log.Println(saved.DocumentTracking.Version, err)
		return true
	}

	current, err := version.NewVersion(currentVersion)
	if err != nil {
		log.Println(currentVersion, err)
		return false
	}

	return !current.LessThan(prev)
}

// LoadDocuments reads every mirrored advisory document under dir, ordered
// chronologically by month key.
func LoadDocuments(fs afero.Fs, dir string) ([]Document, error) {
	files, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, xerrors.Errorf("unable to read the advisory directory: %w", err)
	}

	var keys []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(f.Name(), ".json"))
	}
	slices.SortStableFunc(keys, compareMonthKeys)

	var docs []Document
	for _, key := range keys {
		doc, err := loadDocument(fs, filepath.Join(dir, fmt.Sprintf("%s.json", key)))
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func loadDocument(fs afero.Fs, filePath string) (*Document, error) {
	b, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return nil, xerrors.Errorf("unable to read %s: %w", filePath, err)
	}

	var doc Document
	if err = json.Unmarshal(b, &doc); err != nil {
		return nil, xerrors.Errorf("failed to decode %s: %w", filePath, err)
	}
	return &doc, nil
}

// compareMonthKeys orders month keys chronologically. Keys that do not parse
// sort after the ones that do, alphabetically.
func compareMonthKeys(a, b string) int {
	ta, aErr := time.Parse(monthKeyFormat, a)
	tb, bErr := time.Parse(monthKeyFormat, b)
	switch {
	case aErr == nil && bErr == nil:
		return ta.Compare(tb)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
