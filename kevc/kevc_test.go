package kevc_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/vuln-triage-update/kevc"
)

func TestUpdate(t *testing.T) {
	tests := []struct {
		name      string
		inputFile string
		wantErr   string
	}{
		{
			name:      "happy path",
			inputFile: "testdata/happy/known_exploited_vulnerabilities.csv",
		},
		{
			name:      "sad path, no cveID column",
			inputFile: "testdata/sad/known_exploited_vulnerabilities.csv",
			wantErr:   `the KEV header has no "cveID" column`,
		},
		{
			name:    "sad path, catalog not found",
			wantErr: "failed to download KEV catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.inputFile == "" {
					http.NotFound(w, r)
					return
				}
				http.ServeFile(w, r, tt.inputFile)
			}))
			defer ts.Close()

			tmpDir := t.TempDir()
			cc := kevc.NewConfig(kevc.WithURL(ts.URL+"/sites/default/files/csv/known_exploited_vulnerabilities.csv"), kevc.WithDir(tmpDir))

			err := cc.Update()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			// the catalog is mirrored as downloaded
			want, err := os.ReadFile(tt.inputFile)
			require.NoError(t, err, "failed to open the input file")

			got, err := os.ReadFile(filepath.Join(tmpDir, "known_exploited_vulnerabilities.csv"))
			require.NoError(t, err, "failed to open the result file")

			assert.Equal(t, string(want), string(got))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    kevc.Catalog
		wantErr string
	}{
		{
			name: "happy path",
			input: "cveID,vendorProject,product,vulnerabilityName,dateAdded\n" +
				"CVE-2021-44228,Apache,Log4j2,Apache Log4j2 Remote Code Execution Vulnerability,2021-12-10\n" +
				"CVE-2024-21410,Microsoft,Exchange Server,Microsoft Exchange Server Privilege Escalation Vulnerability,2024-02-15\n",
			want: kevc.Catalog{
				{
					CveID:             "CVE-2021-44228",
					VendorProject:     "Apache",
					Product:           "Log4j2",
					VulnerabilityName: "Apache Log4j2 Remote Code Execution Vulnerability",
					DateAdded:         "2021-12-10",
				},
				{
					CveID:             "CVE-2024-21410",
					VendorProject:     "Microsoft",
					Product:           "Exchange Server",
					VulnerabilityName: "Microsoft Exchange Server Privilege Escalation Vulnerability",
					DateAdded:         "2024-02-15",
				},
			},
		},
		{
			name:  "happy path, byte order mark",
			input: "\ufeffcveID,vendorProject\nCVE-2023-4966,Citrix\n",
			want: kevc.Catalog{
				{
					CveID:         "CVE-2023-4966",
					VendorProject: "Citrix",
				},
			},
		},
		{
			name:    "sad path, empty input",
			input:   "",
			wantErr: "failed to read the KEV header",
		},
		{
			name:    "sad path, no cveID column",
			input:   "id,vendorProject\nCVE-2023-4966,Citrix\n",
			wantErr: `the KEV header has no "cveID" column`,
		},
		{
			name:    "sad path, ragged record",
			input:   "cveID,vendorProject\nCVE-2023-4966,Citrix,NetScaler\n",
			wantErr: "failed to read a KEV record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := kevc.Parse(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_CveIDSet(t *testing.T) {
	catalog := kevc.Catalog{
		{CveID: "CVE-2021-44228"},
		{CveID: "CVE-2024-21410"},
		{CveID: "CVE-2021-44228"},
	}

	set := catalog.CveIDSet()
	assert.Len(t, set, 2)
	assert.Contains(t, set, "CVE-2021-44228")
	assert.Contains(t, set, "CVE-2024-21410")
	assert.NotContains(t, set, "CVE-2024-20674")
}

func TestLoadCatalog(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		b, err := os.ReadFile("testdata/happy/known_exploited_vulnerabilities.csv")
		require.NoError(t, err)
		err = afero.WriteFile(fs, "kevc/known_exploited_vulnerabilities.csv", b, 0644)
		require.NoError(t, err)

		catalog, err := kevc.LoadCatalog(fs, "kevc/known_exploited_vulnerabilities.csv")
		require.NoError(t, err)
		require.Len(t, catalog, 3)
		assert.Equal(t, "CVE-2024-21410", catalog[0].CveID)
		assert.Equal(t, "Exchange Server", catalog[0].Product)
		assert.Equal(t, "Known", catalog[1].KnownRansomwareCampaignUse)
	})

	t.Run("sad path, missing catalog", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := kevc.LoadCatalog(fs, "kevc/known_exploited_vulnerabilities.csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to open the KEV catalog")
	})
}
