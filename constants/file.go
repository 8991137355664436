package constants

import "strings"

// AllowedExtensions holds the file extensions read as order texts in batch mode.
var AllowedExtensions = map[string]struct{}{
	"txt": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// DefaultUnit is the item unit assumed when none is given.
const DefaultUnit = "unidad"
