package storage

import (
	"path/filepath"
	"strings"
)

// FileKind is a UI hint describing how an artifact can be presented.
type FileKind string

// File kinds
const (
	// FileKindImage marks artifacts browsers can preview inline
	FileKindImage FileKind = "image"
	// FileKindData marks everything else
	FileKindData FileKind = "data"
)

var previewableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".svg":  true,
	".gif":  true,
	".pdf":  true,
}

// Classify returns the file kind for a filename based on its extension.
func Classify(filename string) FileKind {
	ext := strings.ToLower(filepath.Ext(filename))
	if previewableExtensions[ext] {
		return FileKindImage
	}
	return FileKindData
}
