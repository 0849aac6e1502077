package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// VerificationSubdir is where verification documents live under the root.
const VerificationSubdir = "verification_documents"

// Store saves uploaded files under a configured root directory.
type Store interface {
	Save(subdir, originalName string, src io.Reader) (string, error)
	Open(subdir, storedName string) (io.ReadCloser, error)
	Remove(subdir, storedName string) error
}

type localStore struct {
	root string
}

// NewLocalStore builds a filesystem-backed store rooted at dir.
func NewLocalStore(dir string) Store {
	return &localStore{root: dir}
}

// Save writes the file under root/subdir with a generated unique name and
// returns the stored name. Names are uuid-based so concurrent uploads from
// the same user cannot collide.
func (s *localStore) Save(subdir, originalName string, src io.Reader) (string, error) {
	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(dir, storedName)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return storedName, nil
}

func (s *localStore) Open(subdir, storedName string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.root, subdir, filepath.Base(storedName)))
}

func (s *localStore) Remove(subdir, storedName string) error {
	return os.Remove(filepath.Join(s.root, subdir, filepath.Base(storedName)))
}
