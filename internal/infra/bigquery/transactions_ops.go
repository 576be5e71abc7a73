package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dvloznov/finance-metrics/internal/domain"
	"github.com/dvloznov/finance-metrics/internal/pipeline"
)

const tableURIPrefix = "bq://"

// TableRef names a BigQuery table.
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

func (r TableRef) String() string {
	return fmt.Sprintf("%s.%s.%s", r.Project, r.Dataset, r.Table)
}

// ParseTableURI reads bq://project.dataset.table, or bq://dataset.table
// with defaultProject.
func ParseTableURI(uri, defaultProject string) (TableRef, error) {
	if !strings.HasPrefix(uri, tableURIPrefix) {
		return TableRef{}, fmt.Errorf("invalid table URI: %s", uri)
	}
	parts := strings.Split(strings.TrimPrefix(uri, tableURIPrefix), ".")
	for _, p := range parts {
		if p == "" {
			return TableRef{}, fmt.Errorf("invalid table URI (empty name): %s", uri)
		}
	}
	switch len(parts) {
	case 3:
		return TableRef{Project: parts[0], Dataset: parts[1], Table: parts[2]}, nil
	case 2:
		if defaultProject == "" {
			return TableRef{}, fmt.Errorf("invalid table URI (no project and no default): %s", uri)
		}
		return TableRef{Project: defaultProject, Dataset: parts[0], Table: parts[1]}, nil
	default:
		return TableRef{}, fmt.Errorf("invalid table URI: %s", uri)
	}
}

// TransactionSource reads transaction tables whose column names match the
// export header. It keeps one client per project.
type TransactionSource struct {
	defaultProject string
	opts           []option.ClientOption

	mu      sync.Mutex
	clients map[string]*bigquery.Client
}

// NewTransactionSource creates a table source. defaultProject is used for
// URIs that only name dataset and table.
func NewTransactionSource(defaultProject string, opts ...option.ClientOption) *TransactionSource {
	return &TransactionSource{
		defaultProject: defaultProject,
		opts:           opts,
		clients:        make(map[string]*bigquery.Client),
	}
}

func (s *TransactionSource) client(ctx context.Context, project string) (*bigquery.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[project]; ok {
		return c, nil
	}
	c, err := bigquery.NewClient(ctx, project, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	s.clients[project] = c
	return c, nil
}

// QueryTransactions reads every row of the table named by uri.
func (s *TransactionSource) QueryTransactions(ctx context.Context, uri string) ([]domain.Transaction, error) {
	ref, err := ParseTableURI(uri, s.defaultProject)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: %w", err)
	}

	client, err := s.client(ctx, ref.Project)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactions: %w", err)
	}

	it := client.DatasetInProject(ref.Project, ref.Dataset).Table(ref.Table).Read(ctx)

	var txs []domain.Transaction
	for {
		var row map[string]bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactions: iter next: %w", err)
		}
		txs = append(txs, RowToTransaction(row))
	}

	return txs, nil
}

// Close closes every client opened by the source.
func (s *TransactionSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for project, c := range s.clients {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
		delete(s.clients, project)
	}
	return first
}

// RowToTransaction copies the row's columns into a transaction. Columns
// outside the schema are ignored.
func RowToTransaction(row map[string]bigquery.Value) domain.Transaction {
	var tx domain.Transaction
	for column, v := range row {
		pipeline.SetField(&tx, column, ValueString(v))
	}
	return tx
}

// ValueString renders a BigQuery cell the way the text export spells it.
func ValueString(v bigquery.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *big.Rat:
		if x == nil {
			return ""
		}
		return bigquery.NumericString(x)
	case civil.Date:
		return x.String()
	case civil.DateTime:
		return x.String()
	case civil.Time:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
