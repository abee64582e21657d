package utils_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/vuln-triage-update/utils"
)

func TestDownloadToTempFile(t *testing.T) {
	tests := []struct {
		name     string
		filePath string
		want     string
		wantErr  string
	}{
		{
			name:     "happy path",
			filePath: "testdata/test.txt.gz",
			want:     "test",
		},
		{
			name:     "sad path",
			filePath: "testdata/unknown.tar.gz",
			wantErr:  "bad response code: 404",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.ServeFile(w, r, filepath.Join(".", r.URL.Path))
			}))
			defer ts.Close()

			u, err := url.Parse(ts.URL)
			require.NoError(t, err)

			u.Path = path.Join(u.Path, tt.filePath)
			tmpFile, err := utils.DownloadToTempFile(context.Background(), u.String())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
			defer os.Remove(tmpFile)

			got, err := os.ReadFile(tmpFile)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}
