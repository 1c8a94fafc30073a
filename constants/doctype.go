package constants

import (
	"strings"
)

// DocType is the document-type label used in filenames and directory names.
type DocType string

const (
	Correspondence DocType = "CORR"
	Report         DocType = "REPORT"
	NIR            DocType = "NIR"
	DSI            DocType = "DSI"
	PSI            DocType = "PSI"
	HHERA          DocType = "HHERA"
	COR            DocType = "COR"
	COC            DocType = "COC"
	AIP            DocType = "AIP"
	DET            DocType = "DET"
	Unknown        DocType = "UNKNOWN"
)

// allDocTypes is ordered the way the keyword matcher tries them.
var allDocTypes = []DocType{
	Correspondence,
	Report,
	NIR,
	DSI,
	PSI,
	HHERA,
	COR,
	COC,
	AIP,
	DET,
}

// DocTypes returns the known labels, UNKNOWN excluded.
func DocTypes() []DocType {
	out := make([]DocType, len(allDocTypes))
	copy(out, allDocTypes)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allDocTypes))
	for i, dt := range allDocTypes {
		result[i] = string(dt)
	}
	return result
}

// Canonicalize maps free text (model output, spreadsheet cells) to a known label.
func Canonicalize(input string) (DocType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	normalized = strings.Trim(normalized, ".'\" ")
	if normalized == "" {
		return Unknown, false
	}

	synonyms := map[string]DocType{
		"CORRESPONDENCE": Correspondence,
		"LETTER":         Correspondence,
		"MEMO":           Correspondence,
		"RPT":            Report,
	}
	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}
	if normalized == string(Unknown) {
		return Unknown, true
	}
	return Unknown, false
}
