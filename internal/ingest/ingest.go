// Package ingest discovers and reads order texts from the local filesystem.
package ingest

import "context"

// Document is one order text read from disk.
type Document struct {
	SourcePath   string
	Text         string
	HashHex      string
	Deduplicated bool // same content already ingested by this ingestor
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the batch runner depends on.
type Ingestor interface {
	// IngestPath reads a single order file.
	IngestPath(ctx context.Context, path string) (Document, error)
	// IngestDirectory reads all matching files under root in lexical order.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Document, DirStats, error)
}
