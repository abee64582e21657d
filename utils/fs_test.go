package utils

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

type fakeMemFS struct {
	create   func(string) (afero.File, error)
	mkdirAll func(string, os.FileMode) error
}

func (ffs fakeMemFS) Create(name string) (afero.File, error) {
	if ffs.create != nil {
		return ffs.create(name)
	}

	return os.CreateTemp("", "fakeMemFS-*.file")
}

func (ffs fakeMemFS) Mkdir(name string, perm os.FileMode) error {
	panic("implement me")
}

func (ffs fakeMemFS) MkdirAll(path string, perm os.FileMode) error {
	if ffs.mkdirAll != nil {
		return ffs.mkdirAll(path, perm)
	}

	return nil
}

func (ffs fakeMemFS) Open(name string) (afero.File, error) {
	panic("implement me")
}

func (ffs fakeMemFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	panic("implement me")
}

func (ffs fakeMemFS) Remove(name string) error {
	panic("implement me")
}

func (ffs fakeMemFS) RemoveAll(path string) error {
	panic("implement me")
}

func (ffs fakeMemFS) Rename(oldname, newname string) error {
	panic("implement me")
}

func (ffs fakeMemFS) Stat(name string) (os.FileInfo, error) {
	panic("implement me")
}

func (ffs fakeMemFS) Name() string {
	panic("implement me")
}

func (ffs fakeMemFS) Chmod(name string, mode os.FileMode) error {
	panic("implement me")
}

func (ffs fakeMemFS) Chown(name string, uid, gid int) error {
	panic("implement me")
}

func (ffs fakeMemFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	panic("implement me")
}

func TestWriteJSON(t *testing.T) {
	testCases := []struct {
		name          string
		memfs         afero.Fs
		inputData     interface{}
		expectedError error
	}{
		{
			name:      "happy path",
			memfs:     fakeMemFS{},
			inputData: `{}`,
		},
		{
			name: "sad path: fs.MkdirAll returns an error",
			memfs: fakeMemFS{
				mkdirAll: func(s string, mode os.FileMode) error {
					return errors.New("cannot create directory")
				},
			},
			expectedError: errors.New("unable to create a directory: cannot create directory"),
		},
		{
			name: "sad path: fs.Create returns an error",
			memfs: fakeMemFS{
				create: func(s string) (file afero.File, e error) {
					return nil, errors.New("cannot create file")
				},
			},
			expectedError: errors.New("unable to open a file: cannot create file"),
		},
		{
			name:          "sad path: bad json input data",
			memfs:         fakeMemFS{},
			inputData:     math.NaN(),
			expectedError: errors.New("failed to marshal JSON: json: unsupported value: NaN"),
		},
	}

	for _, tc := range testCases {
		err := WriteJSON(tc.memfs, "foo", "bar.json", tc.inputData)
		switch {
		case tc.expectedError != nil:
			assert.Equal(t, tc.expectedError.Error(), err.Error(), tc.name)
		default:
			assert.NoError(t, err, tc.name)
		}
	}
}

func TestWriteBytes(t *testing.T) {
	appFs := afero.NewMemMapFs()
	err := WriteBytes(appFs, "foo", "bar.csv", []byte("cveID,epss\nCVE-2023-0001,0.5\n"))
	assert.NoError(t, err)

	b, err := afero.ReadFile(appFs, filepath.Join("foo", "bar.csv"))
	assert.NoError(t, err)
	assert.Equal(t, "cveID,epss\nCVE-2023-0001,0.5\n", string(b))
}
