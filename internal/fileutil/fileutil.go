// Package fileutil provides shared file utilities for pyship.
package fileutil

import (
	"io"
	"os"
	"path/filepath"

	pserr "github.com/relicta-tech/pyship/internal/errors"
)

// ReadFileLimited reads a file up to maxSize bytes and fails when the
// file is larger. Version files and configs are small; anything beyond
// the limit is not a file pyship should be rewriting.
func ReadFileLimited(path string, maxSize int64) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 -- caller is responsible for path validation
	if err != nil {
		return nil, pserr.IOWrap(err, "ReadFileLimited", "opening "+path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, pserr.IOWrap(err, "ReadFileLimited", "stat "+path)
	}
	if info.Size() > maxSize {
		return nil, pserr.IO("ReadFileLimited", "file exceeds size limit: "+path)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxSize))
	if err != nil {
		return nil, pserr.IOWrap(err, "ReadFileLimited", "reading "+path)
	}
	return data, nil
}

// AtomicWriteFile writes data to path through a temp file in the same
// directory followed by a rename, so a crash mid-write never leaves a
// truncated file behind.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return pserr.IOWrap(err, "AtomicWriteFile", "creating temp file in "+dir)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return pserr.IOWrap(err, "AtomicWriteFile", "setting permissions on "+tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return pserr.IOWrap(err, "AtomicWriteFile", "writing "+tmpName)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return pserr.IOWrap(err, "AtomicWriteFile", "syncing "+tmpName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pserr.IOWrap(err, "AtomicWriteFile", "closing "+tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return pserr.IOWrap(err, "AtomicWriteFile", "renaming to "+path)
	}
	return nil
}
