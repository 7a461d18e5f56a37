package storage

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Local stores uploaded payment proofs on the local filesystem. Orders
// reference the returned relative path, so the root can move between
// environments without rewriting rows.
type Local struct {
	root string
}

// NewLocal creates a store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// SaveProof writes an uploaded payment proof under payments/ and returns the
// path to record on the order. File handles are closed on every exit path.
func (l *Local) SaveProof(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := filepath.Join(l.root, "payments")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + filepath.Ext(file.Filename)
	rel := filepath.Join("payments", name)

	dst, err := os.Create(filepath.Join(l.root, rel))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(filepath.Join(l.root, rel))
		return "", err
	}

	return rel, dst.Close()
}

// Remove deletes a previously saved proof. Used to clean up when the order
// transaction fails after the upload already landed.
func (l *Local) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	return os.Remove(filepath.Join(l.root, rel))
}
