package pipeline

import (
	"sync"

	"github.com/joseph-ayodele/site-records/internal/metadata"
	"github.com/joseph-ayodele/site-records/internal/placement"
)

// RunState is everything one run carries from document to document.
type RunState struct {
	Session *metadata.Session
	Placer  *placement.Placer

	mu    sync.Mutex
	sites map[string]*sync.Mutex
}

func NewRunState() *RunState {
	return &RunState{
		Session: metadata.NewSession(),
		Placer:  placement.NewPlacer(nil),
		sites:   make(map[string]*sync.Mutex),
	}
}

// siteLock serializes the duplicate scan, placement and relabel of one site.
func (s *RunState) siteLock(site string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.sites[site]
	if !ok {
		l = &sync.Mutex{}
		s.sites[site] = l
	}
	return l
}
