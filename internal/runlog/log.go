package runlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/joseph-ayodele/site-records/internal/common"
)

// ErrHeaderMismatch means an existing log was written with a different column layout.
var ErrHeaderMismatch = errors.New("run log header mismatch")

// Mirror receives every row written to the log.
type Mirror interface {
	Upsert(ctx context.Context, r Record) error
}

type Log struct {
	path   string
	mu     sync.Mutex
	mirror Mirror
	logger *slog.Logger
}

// Open creates the log with its header, or reuses an existing log with the same header.
func Open(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Log{path: path, logger: logger}

	header, err := readHeader(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create run log dir: %w", err)
		}
		if err := writeAll(path, nil); err != nil {
			return nil, err
		}
		logger.Info("runlog.created", "path", path)
	case errors.Is(err, io.EOF):
		if err := writeAll(path, nil); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !slices.Equal(header, Headers):
		return nil, fmt.Errorf("%w: %s", ErrHeaderMismatch, path)
	default:
		logger.Info("runlog.reopened", "path", path)
	}
	return l, nil
}

// WithMirror copies every append and update to m. Mirror failures are logged, not returned.
func (l *Log) WithMirror(m Mirror) *Log {
	l.mirror = m
	return l
}

func (l *Log) Path() string { return l.path }

func (l *Log) Append(ctx context.Context, r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(r.Row()); err != nil {
		_ = f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	l.logger.Debug("runlog.append", "file", r.OriginalFilename, "new_filename", r.NewFilename)
	l.mirrorRecord(ctx, r)
	return nil
}

// Update applies fn to the most recent row for originalFilename and rewrites the log
// atomically. It returns common.ErrNotFound when no row matches.
func (l *Log) Update(ctx context.Context, originalFilename string, fn func(*Record)) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := readAll(l.path)
	if err != nil {
		return Record{}, err
	}
	idx := -1
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].OriginalFilename == originalFilename {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.logger.Warn("runlog.update.not_found", "file", originalFilename)
		return Record{}, fmt.Errorf("run log row %q: %w", originalFilename, common.ErrNotFound)
	}

	fn(&records[idx])
	records[idx].OriginalFilename = originalFilename
	if err := writeAll(l.path, records); err != nil {
		return Record{}, err
	}
	l.logger.Info("runlog.update", "file", originalFilename, "new_filename", records[idx].NewFilename)
	l.mirrorRecord(ctx, records[idx])
	return records[idx], nil
}

// FindByOutputPath returns the most recent row whose Output_Path is path.
func (l *Log) FindByOutputPath(path string) (Record, error) {
	records, err := l.Records()
	if err != nil {
		return Record{}, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].OutputPath == path {
			return records[i], nil
		}
	}
	return Record{}, fmt.Errorf("run log output path %q: %w", path, common.ErrNotFound)
}

func (l *Log) Records() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return readAll(l.path)
}

func (l *Log) mirrorRecord(ctx context.Context, r Record) {
	if l.mirror == nil {
		return
	}
	if err := l.mirror.Upsert(ctx, r); err != nil {
		l.logger.Error("runlog.mirror.failed", "file", r.OriginalFilename, "error", err)
	}
}

// ReadFile loads every row of the log at path.
func ReadFile(path string) ([]Record, error) {
	return readAll(path)
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("read run log header: %w", err)
	}
	return h, nil
}

func readAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read run log: %w", err)
	}
	if len(rows) == 0 || !slices.Equal(rows[0], Headers) {
		return nil, fmt.Errorf("%w: %s", ErrHeaderMismatch, path)
	}
	out := make([]Record, 0, len(rows)-1)
	for i, cols := range rows[1:] {
		r, err := parseRow(cols)
		if err != nil {
			return nil, fmt.Errorf("run log line %d: %w", i+2, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// writeAll replaces the log through a temp file in the same directory and a rename.
func writeAll(path string, records []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".runlog-*.csv")
	if err != nil {
		return fmt.Errorf("create temp run log: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	_ = w.Write(Headers)
	for _, r := range records {
		_ = w.Write(r.Row())
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write run log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
