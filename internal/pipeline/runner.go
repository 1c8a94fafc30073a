package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/common"
)

// Summary counts what a run did.
type Summary struct {
	Processed  int
	Failed     int
	Duplicates int
	Relabeled  int
	Failures   map[string]error
	Elapsed    time.Duration
}

func NewSummary() Summary {
	return Summary{Failures: make(map[string]error)}
}

// Count adds the outcome of one file.
func (s *Summary) Count(name string, out Outcome, err error) {
	if err != nil {
		s.Failed++
		s.Failures[name] = err
		return
	}
	s.Processed++
	if out.Record.Duplicate != string(constants.DuplicateNo) {
		s.Duplicates++
	}
	if out.Relabeled != nil {
		s.Relabeled++
		s.Duplicates++
	}
}

type Runner struct {
	proc     *Processor
	progress io.Writer
	logger   *slog.Logger
}

// NewRunner narrates progress to w; a nil w disables the bar.
func NewRunner(proc *Processor, w io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{proc: proc, progress: w, logger: logger}
}

// Run processes paths one at a time in filename order. A failing file is logged and
// skipped; a fatal error (see common.IsFatal) stops the run and is returned.
func (r *Runner) Run(ctx context.Context, state *RunState, paths []string) (Summary, error) {
	start := time.Now()
	ordered := make([]string, len(paths))
	copy(ordered, paths)
	sort.SliceStable(ordered, func(i, j int) bool {
		return filepath.Base(ordered[i]) < filepath.Base(ordered[j])
	})

	sum := NewSummary()
	bar := r.newBar(len(ordered))
	r.logger.Info("run.start", "files", len(ordered), "run_id", common.RunIDFromContext(ctx))

	for _, path := range ordered {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(start)
			return sum, err
		}
		name := filepath.Base(path)
		if bar != nil {
			bar.Describe(name)
		}

		out, err := r.proc.ProcessFile(ctx, state, path)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil && (common.IsFatal(err) || errors.Is(err, context.Canceled)) {
			r.logger.Error("run.aborted", "file", name, "error", err)
			sum.Elapsed = time.Since(start)
			return sum, err
		}
		sum.Count(name, out, err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	sum.Elapsed = time.Since(start)
	r.logger.Info("run.done",
		"processed", sum.Processed,
		"failed", sum.Failed,
		"duplicates", sum.Duplicates,
		"relabeled", sum.Relabeled,
		"flagged", state.Session.Flags.Len(),
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, nil
}

func (r *Runner) newBar(n int) *progressbar.ProgressBar {
	if r.progress == nil || n == 0 {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription("filing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
	)
}
