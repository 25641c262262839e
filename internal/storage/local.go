package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalArchive writes uploads below a root directory.
type LocalArchive struct {
	root string
}

// NewLocalArchive ensures root exists.
func NewLocalArchive(root string) (*LocalArchive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &LocalArchive{root: root}, nil
}

func (a *LocalArchive) Put(_ context.Context, key, _ string, body []byte) (string, error) {
	p := filepath.Join(a.root, filepath.FromSlash(key))
	if !strings.HasPrefix(p, filepath.Clean(a.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive key %q escapes root", key)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, body, 0644); err != nil {
		return "", fmt.Errorf("writing archive file: %w", err)
	}
	return p, nil
}

func (a *LocalArchive) Ping(context.Context) error {
	info, err := os.Stat(a.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", a.root)
	}
	return nil
}
