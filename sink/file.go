// Copyright 2025 The León Radares Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrOutsideRoot is returned for artifact paths escaping the output directory.
var ErrOutsideRoot = errors.New("artifact path escapes the output directory")

// FileStore writes artifacts below a root directory. Writes go through a
// temporary file in the same directory and a rename, so readers never see a
// partially written artifact.
type FileStore struct {
	root string
}

// NewFileStore creates a new file store rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Name implements Sink.
func (s *FileStore) Name() string { return "file" }

// Path returns the absolute location of an artifact.
func (s *FileStore) Path(rel string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(rel))

	r, err := filepath.Rel(s.root, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", eris.Wrapf(ErrOutsideRoot, "%q", rel)
	}

	return p, nil
}

// Write implements Sink.
func (s *FileStore) Write(_ context.Context, a *Artifact) error {
	path, err := s.Path(a.Source.Output)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "setting up %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrapf(err, "creating temporary file in %s", dir)
	}

	defer func() {
		// no-op once renamed
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(a.Data); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "writing %s", path)
	}

	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "closing %s", tmp.Name())
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return eris.Wrapf(err, "setting permissions on %s", tmp.Name())
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "replacing %s", path)
	}

	return nil
}

// Close implements Sink.
func (s *FileStore) Close() error { return nil }
