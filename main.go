package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-triage-update/cvrf"
	"github.com/aquasecurity/vuln-triage-update/epss"
	"github.com/aquasecurity/vuln-triage-update/git"
	"github.com/aquasecurity/vuln-triage-update/kevc"
	"github.com/aquasecurity/vuln-triage-update/triage"
	"github.com/aquasecurity/vuln-triage-update/utils"
)

const (
	repoURL          = "https://%s@github.com/%s/%s.git"
	defaultRepoOwner = "aquasecurity"
	defaultRepoName  = "vuln-triage"
)

var (
	target = flag.String("target", "", "update target (cvrf, kevc, epss, triage)")
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Parse()
	now := time.Now().UTC()
	gc := &git.Config{}

	repoOwner := utils.LookupEnv("VULNTRIAGE_REPOSITORY_OWNER", defaultRepoOwner)
	repoName := utils.LookupEnv("VULNTRIAGE_REPOSITORY_NAME", defaultRepoName)

	// Embed GitHub token to URL
	githubToken := os.Getenv("GITHUB_TOKEN")
	url := fmt.Sprintf(repoURL, githubToken, repoOwner, repoName)

	log.Printf("target repository is %s/%s\n", repoOwner, repoName)

	debug := os.Getenv("VULN_TRIAGE_DEBUG") != ""
	if _, err := gc.CloneOrPull(url, utils.TriageDir(), "main", debug); err != nil {
		return xerrors.Errorf("clone or pull error: %w", err)
	}

	var commitMsg string
	switch *target {
	case "cvrf":
		mc := cvrf.NewConfig()
		if err := mc.Update(); err != nil {
			return xerrors.Errorf("error in MSRC CVRF update: %w", err)
		}
		commitMsg = "Microsoft Security Update Guide"
	case "kevc":
		kc := kevc.NewConfig()
		if err := kc.Update(); err != nil {
			return xerrors.Errorf("error in Known Exploited Vulnerabilities Catalog update: %w", err)
		}
		commitMsg = "Known Exploited Vulnerabilities Catalog"
	case "epss":
		ec := epss.NewConfig()
		if err := ec.Update(); err != nil {
			return xerrors.Errorf("error in EPSS update: %w", err)
		}
		commitMsg = "Exploit Prediction Scoring System"
	case "triage":
		tc := triage.NewConfig()
		if err := tc.Build(); err != nil {
			return xerrors.Errorf("error in triage report build: %w", err)
		}
		commitMsg = "Triage Report"
	default:
		return xerrors.New("unknown target")
	}

	if debug {
		return nil
	}

	if err := utils.SetLastUpdatedDate(*target, now); err != nil {
		return err
	}

	log.Println("git status")
	files, err := gc.Status(utils.TriageDir())
	if err != nil {
		return xerrors.Errorf("git status error: %w", err)
	}

	// only last_updated.json
	if len(files) < 2 {
		log.Println("Skip commit and push")
		return nil
	}

	log.Println("git commit")
	if err = gc.Commit(utils.TriageDir(), "./", commitMsg); err != nil {
		return xerrors.Errorf("git commit error: %w", err)
	}

	log.Println("git push")
	if err = gc.Push(utils.TriageDir(), "main"); err != nil {
		return xerrors.Errorf("git push error: %w", err)
	}

	return nil
}
