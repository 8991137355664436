package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/order-interpreter/constants"
)

// AllowedExt checks if a file extension is one read as an order text.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
