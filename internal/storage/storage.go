// Package storage archives the spreadsheets uploaded for import, either in
// S3 or in a local directory, so a run can be traced back to its source.
package storage

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/ignite/shipment-importer/internal/config"
)

// Archive stores uploaded files.
type Archive interface {
	// Put stores body under key and returns a locator for it.
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// New builds the archive named by cfg.Type. It returns nil, nil when
// archiving is disabled.
func New(ctx context.Context, cfg config.ArchiveConfig) (Archive, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "local":
		return NewLocalArchive(cfg.LocalPath)
	case "s3":
		return NewS3Archive(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key builds the archive key for an upload: owner/yyyy/mm/dd/<id>-<name>.
// Unsafe characters in the owner and file name are replaced.
func Key(owner, uploadID, filename string, at time.Time) string {
	owner = sanitize(owner)
	if owner == "" {
		owner = "anonymous"
	}
	name := sanitize(path.Base(strings.ReplaceAll(filename, `\`, "/")))
	if name == "" || name == "." {
		name = "upload"
	}
	return path.Join(owner, at.UTC().Format("2006/01/02"), uploadID+"-"+name)
}

func sanitize(s string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(s, "_"), "_")
}
