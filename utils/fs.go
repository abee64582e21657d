package utils

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/spf13/afero"
)

// WriteJSON dumps data as prettified JSON under dir, creating dir if needed.
func WriteJSON(fs afero.Fs, dir, fileName string, data interface{}) error {
	if err := fs.MkdirAll(dir, os.ModePerm); err != nil {
		return xerrors.Errorf("unable to create a directory: %w", err)
	}

	f, err := fs.Create(filepath.Join(dir, fileName))
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err = f.Write(b); err != nil {
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	return nil
}

// WriteBytes dumps raw bytes under dir, creating dir if needed.
func WriteBytes(fs afero.Fs, dir, fileName string, data []byte) error {
	if err := fs.MkdirAll(dir, os.ModePerm); err != nil {
		return xerrors.Errorf("unable to create a directory: %w", err)
	}

	f, err := fs.Create(filepath.Join(dir, fileName))
	if err != nil {
		return xerrors.Errorf("unable to open a file: %w", err)
	}
	defer f.Close()

	if _, err = f.Write(data); err != nil {
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	return nil
}
