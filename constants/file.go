package constants

import "strings"

// AllowedExtensions holds the extensions picked up from the input directory.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether path has a .pdf extension, case-insensitively.
func IsPDF(path string) bool {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return false
	}
	return NormalizeExt(path[i:]) == "pdf"
}

const (
	// UnknownSiteDir is the site directory used when no site ID could be resolved.
	UnknownSiteDir = "unknown"
	// UndatedDate and UndatedYear stand in when the filename carries no date.
	UndatedDate = "0000-00-00"
	UndatedYear = "0000"
	// DuplicateMarker is appended to the base name of a redundant copy.
	DuplicateMarker = "-DUP"
)
