package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/duplicate"
	"github.com/joseph-ayodele/site-records/internal/placement"
	"github.com/joseph-ayodele/site-records/internal/runlog"
)

// relabelSuperseded renames the filed copy to its -DUP name and rewrites its run-log row.
func (p *Processor) relabelSuperseded(ctx context.Context, state *RunState, v duplicate.Verdict, matched runlog.Record, current string) (*runlog.Record, error) {
	newPath := v.MatchedPath
	if !isMarkedDuplicate(v.MatchedPath) {
		name := dupName(v.MatchedPath, matched)
		var err error
		newPath, err = state.Placer.Claim(filepath.Dir(v.MatchedPath), name)
		if err != nil {
			return nil, err
		}
		if err := placement.Relabel(v.MatchedPath, newPath); err != nil {
			return nil, err
		}
	}
	p.logger.Info("processor.relabel.ok",
		"file", current,
		"superseded", matched.OriginalFilename,
		"from", v.MatchedPath,
		"to", newPath,
		"score", v.Score,
	)

	updated, err := p.deps.Log.Update(ctx, matched.OriginalFilename, func(r *runlog.Record) {
		r.Duplicate = string(constants.DuplicateRetroactive)
		r.DuplicateFile = current
		r.Releasable = constants.ReleasableDuplicate
		r.SimilarityScore = v.Score
		r.NewFilename = filepath.Base(newPath)
		r.OutputPath = newPath
	})
	if errors.Is(err, common.ErrNotFound) {
		// renamed on disk; there is no row to fix
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// dupName derives the -DUP name from the logged row when there is one,
// otherwise from the filed name itself.
func dupName(path string, matched runlog.Record) string {
	if dt, ok := constants.Canonicalize(matched.DocumentType); ok && matched.SiteID != "" {
		return placement.BaseName(matched.OriginalFilename, matched.SiteID, dt, true)
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + constants.DuplicateMarker + ext
}

func isMarkedDuplicate(path string) bool {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.Contains(stem, constants.DuplicateMarker)
}
