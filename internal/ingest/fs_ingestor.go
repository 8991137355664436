package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"
)

// DefaultMaxBytes caps the size of a single order file.
const DefaultMaxBytes = 64 << 10

var (
	ErrUnsupportedExt = errors.New("unsupported or missing extension")
	ErrTooLarge       = errors.New("file too large")
	ErrNotUTF8        = errors.New("file is not valid UTF-8")
)

// FSIngestor reads from the local filesystem. It remembers content hashes so
// repeated texts are flagged as deduplicated.
type FSIngestor struct {
	Logger   *slog.Logger
	MaxBytes int64

	mu   sync.Mutex
	seen map[string]string // hash -> first path
}

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Logger: logger, MaxBytes: DefaultMaxBytes, seen: map[string]string{}}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (Document, error) {
	var out Document
	if err := ctx.Err(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, err
	}
	out.SourcePath = abs

	if !AllowedExt(filepath.Ext(abs)) {
		return out, fmt.Errorf("%w: %q", ErrUnsupportedExt, filepath.Ext(abs))
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.Logger.Warn("ingest.close.failed", "path", abs, "error", err)
		}
	}(f)

	limit := i.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	b, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return out, err
	}
	if int64(len(b)) > limit {
		return out, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	if !utf8.Valid(b) {
		return out, ErrNotUTF8
	}

	sum := sha256.Sum256(b)
	out.HashHex = hex.EncodeToString(sum[:])
	out.Text = strings.TrimPrefix(string(b), "\ufeff")

	i.mu.Lock()
	if i.seen == nil {
		i.seen = map[string]string{}
	}
	if first, ok := i.seen[out.HashHex]; ok && first != abs {
		out.Deduplicated = true
	} else {
		i.seen[out.HashHex] = abs
	}
	i.mu.Unlock()

	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and calls
// IngestPath for each order file. Read failures are reported per file.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Document, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []Document
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			results = append(results, Document{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		doc, err := i.IngestPath(ctx, path)
		if err != nil {
			i.Logger.Warn("ingest.file.failed", "path", path, "error", err)
			doc.SourcePath = path
			doc.Err = err.Error()
			results = append(results, doc)
			stats.Failed++
			return nil
		}
		results = append(results, doc)
		stats.Succeeded++
		if doc.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	i.Logger.Info("ingest.directory.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated,
	)
	return results, stats, nil
}

var _ Ingestor = (*FSIngestor)(nil)
