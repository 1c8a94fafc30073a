package placement

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Placer hands out free destination paths. A path it has handed out stays taken for the
// rest of the run even if the file is later renamed away.
type Placer struct {
	mu      sync.Mutex
	claimed map[string]struct{}
	logger  *slog.Logger
}

func NewPlacer(logger *slog.Logger) *Placer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Placer{claimed: make(map[string]struct{}), logger: logger}
}

// Claim returns dir/name, or dir/name_1, dir/name_2, ... for the first slot that is
// neither on disk nor claimed earlier in this run.
func (p *Placer) Claim(dir, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for n := 0; ; n++ {
		candidate := filepath.Join(dir, WithSuffix(name, n))
		if _, taken := p.claimed[candidate]; taken {
			continue
		}
		exists, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		p.claimed[candidate] = struct{}{}
		if n > 0 {
			p.logger.Info("placement.collision", "dir", dir, "name", name, "suffix", n)
		}
		return candidate, nil
	}
}

// Claimed reports whether path was handed out in this run.
func (p *Placer) Claimed(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.claimed[path]
	return ok
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
