package pipeline

import (
	"context"
	"io"

	"github.com/dvloznov/finance-metrics/internal/domain"
	"github.com/dvloznov/finance-metrics/internal/store"
)

// DatasetSource opens a delimited-text dataset by URI.
type DatasetSource interface {
	Fetch(ctx context.Context, uri string) (io.ReadCloser, error)
}

// TransactionSource loads already-structured rows, such as a warehouse
// table, by URI.
type TransactionSource interface {
	QueryTransactions(ctx context.Context, uri string) ([]domain.Transaction, error)
}

// SnapshotPublisher receives a fully loaded dataset.
type SnapshotPublisher interface {
	Publish(snap *store.Snapshot)
}
