package constants

import "strings"

// None is the sentinel the oracle and the run log use for an absent value.
const None = "none"

// IsNone reports whether v is empty or one of the absent-value spellings.
func IsNone(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", None, "null", "n/a":
		return true
	}
	return false
}

// OrNone returns v trimmed, or None when v is absent.
func OrNone(v string) string {
	if IsNone(v) {
		return None
	}
	return strings.TrimSpace(v)
}

// DuplicateStatus is the verdict stored in the Duplicate column.
type DuplicateStatus string

// Stable values (stored as exact strings in the run log).
const (
	DuplicateNo          DuplicateStatus = "no"
	DuplicateContained   DuplicateStatus = "contained"
	DuplicateLikelyOCR   DuplicateStatus = "likely_duplicate_ocr"
	DuplicateRetroactive DuplicateStatus = "yes" // set on an earlier row relabeled by a later, longer copy
)

// IsDuplicate reports whether the status marks the document as redundant.
func (s DuplicateStatus) IsDuplicate() bool {
	switch s {
	case DuplicateContained, DuplicateLikelyOCR, DuplicateRetroactive:
		return true
	}
	return false
}

// Readable is the tri-state readability flag.
type Readable string

const (
	ReadableYes     Readable = "yes"
	ReadableNo      Readable = "no"
	ReadableUnknown Readable = "unknown"
)

// ParseReadable maps oracle output to the tri-state.
func ParseReadable(v string) Readable {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "y":
		return ReadableYes
	case "no", "false", "n":
		return ReadableNo
	}
	return ReadableUnknown
}

// Review reasons that are not field names.
const (
	ReviewUnreadable = "unreadable"
	ReviewOracle     = "oracle"
	ReviewSiteID     = "site_id"
)

// ReleasableDuplicate is written to the releasability column for redundant copies.
const ReleasableDuplicate = "No (duplicate)"
