package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-metrics/internal/logger"
	"github.com/dvloznov/finance-metrics/internal/store"
)

// Deps holds the collaborators of a dataset load.
type Deps struct {
	Source    DatasetSource
	Table     TransactionSource
	Publisher SnapshotPublisher
	Now       func() time.Time
}

// Result describes a completed load.
type Result struct {
	Snapshot *store.Snapshot
	Stats    ParseStats
	Duration time.Duration
}

// LoadDataset fetches, parses and validates the dataset at uri, then
// publishes it. Nothing is published when any step fails.
func LoadDataset(ctx context.Context, uri string, deps Deps) (*Result, error) {
	log := logger.FromContext(ctx)
	started := time.Now()

	log.Info().Str("uri", uri).Msg("Loading dataset")

	state := &PipelineState{URI: uri}
	if err := NewLoadPipeline(deps).Execute(ctx, state); err != nil {
		log.Error().Err(err).Str("uri", uri).Msg("Dataset load failed")
		return nil, fmt.Errorf("LoadDataset: %w", err)
	}

	res := &Result{
		Snapshot: state.Snapshot,
		Stats:    state.Stats,
		Duration: time.Since(started),
	}
	log.Info().
		Str("uri", uri).
		Str("version", res.Snapshot.Version()).
		Int("rows", res.Stats.Rows).
		Int("blank_lines", res.Stats.BlankLines).
		Dur("duration", res.Duration).
		Msg("Dataset loaded")
	return res, nil
}

// scheme returns the lower-cased URI scheme, or "" for a plain path.
func scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(uri[:i])
}
