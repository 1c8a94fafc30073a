package metadata

import (
	"sort"
	"sync"
)

// ReviewFlags maps a filename to the fields a human should verify. It only grows.
type ReviewFlags struct {
	mu    sync.Mutex
	flags map[string]map[string]struct{}
}

func NewReviewFlags() *ReviewFlags {
	return &ReviewFlags{flags: map[string]map[string]struct{}{}}
}

// Flag records field for filename.
func (r *ReviewFlags) Flag(filename, field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.flags[filename]
	if !ok {
		set = map[string]struct{}{}
		r.flags[filename] = set
	}
	set[field] = struct{}{}
}

// Fields returns the sorted flagged fields for filename.
func (r *ReviewFlags) Fields(filename string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.flags[filename])
}

// Has reports whether field is flagged for filename.
func (r *ReviewFlags) Has(filename, field string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.flags[filename][field]
	return ok
}

// Filenames returns every flagged filename, sorted.
func (r *ReviewFlags) Filenames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.flags))
	for f := range r.flags {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Len is the number of flagged filenames.
func (r *ReviewFlags) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flags)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
