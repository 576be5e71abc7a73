package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-metrics/internal/domain"
	"github.com/dvloznov/finance-metrics/internal/logger"
	"github.com/dvloznov/finance-metrics/internal/store"
)

// PipelineStep represents a single step in the load pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	URI          string
	Transactions []domain.Transaction
	Stats        ParseStats
	Snapshot     *store.Snapshot
}

// Step 1: FetchStep loads the dataset, either as rows from a table source or
// by parsing delimited text.
type FetchStep struct {
	Source DatasetSource
	Table  TransactionSource
	Parser *Parser
}

func (s *FetchStep) Execute(ctx context.Context, state *PipelineState) error {
	if scheme(state.URI) == SchemeBigQuery {
		if s.Table == nil {
			return fmt.Errorf("FetchStep: no table source configured for %s", state.URI)
		}
		txs, err := s.Table.QueryTransactions(ctx, state.URI)
		if err != nil {
			return fmt.Errorf("FetchStep: querying %s: %w", state.URI, err)
		}
		state.Transactions = txs
		state.Stats = ParseStats{Rows: len(txs)}
		return nil
	}

	if s.Source == nil {
		return fmt.Errorf("FetchStep: no dataset source configured for %s", state.URI)
	}
	rc, err := s.Source.Fetch(ctx, state.URI)
	if err != nil {
		return fmt.Errorf("FetchStep: opening %s: %w", state.URI, err)
	}
	defer rc.Close()

	parser := s.Parser
	if parser == nil {
		parser = NewParser()
	}
	txs, err := parser.Parse(rc)
	if err != nil {
		return fmt.Errorf("FetchStep: %w", err)
	}
	state.Transactions = txs
	state.Stats = parser.Stats()
	return nil
}

// Step 2: ValidateStep reports on data quality. Malformed rows are kept;
// only an empty dataset fails the load.
type ValidateStep struct{}

func (s *ValidateStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	if len(state.Transactions) == 0 {
		return fmt.Errorf("ValidateStep: %s: %w", state.URI, store.ErrEmptyDataset)
	}

	if len(state.Stats.UnknownColumns) > 0 {
		log.Warn().
			Str("uri", state.URI).
			Strs("columns", state.Stats.UnknownColumns).
			Msg("Ignoring columns not in the transaction schema")
	}
	if state.Stats.ExtraFieldRows > 0 {
		log.Warn().
			Str("uri", state.URI).
			Int("rows", state.Stats.ExtraFieldRows).
			Msg("Dropped values beyond the header on some rows")
	}
	if state.Stats.ShortRows > 0 {
		log.Debug().
			Str("uri", state.URI).
			Int("rows", state.Stats.ShortRows).
			Msg("Rows with fewer values than the header")
	}
	return nil
}

// Step 3: PublishStep builds the snapshot and hands it to the publisher.
type PublishStep struct {
	Publisher SnapshotPublisher
	Now       func() time.Time
}

func (s *PublishStep) Execute(ctx context.Context, state *PipelineState) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	snap := store.NewSnapshot(state.Transactions, state.URI, now())
	state.Snapshot = snap

	if s.Publisher != nil {
		s.Publisher.Publish(snap)
	}

	if snap.Undated() > 0 {
		log := logger.FromContext(ctx)
		log.Warn().
			Str("uri", state.URI).
			Int("undated", snap.Undated()).
			Msg("Rows without a parseable date are excluded from date filters and months")
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewLoadPipeline creates the standard fetch, validate and publish pipeline.
func NewLoadPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&FetchStep{Source: deps.Source, Table: deps.Table},
		&ValidateStep{},
		&PublishStep{Publisher: deps.Publisher, Now: deps.Now},
	)
}
