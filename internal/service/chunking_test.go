package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/infra/observability"
)

type chunkRecorder struct {
	batches [][]domain.Transaction
}

func (c *chunkRecorder) ListTransactions(_ context.Context, _ string, _, _ string) ([]domain.Transaction, error) {
	return nil, nil
}

func (c *chunkRecorder) ListByRecurrence(_ context.Context, _ string) ([]domain.Transaction, error) {
	return nil, nil
}

func (c *chunkRecorder) ListMatching(_ context.Context, _ domain.TransactionMatch) ([]domain.Transaction, error) {
	return nil, nil
}

func (c *chunkRecorder) BatchInsertTransactions(_ context.Context, txns []domain.Transaction) error {
	batch := make([]domain.Transaction, len(txns))
	copy(batch, txns)
	c.batches = append(c.batches, batch)
	return nil
}

func (c *chunkRecorder) CreateTransaction(_ context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	return txn, nil
}

type stubClock struct{ now time.Time }

func (s stubClock) Now() time.Time { return s.now }

// insertInChunks must split a large batch into chunks of at most 450
// rows: 1,000 rows commit as 450 + 450 + 100.
func TestInsertInChunks_SplitsLargeBatches(t *testing.T) {
	store := &chunkRecorder{}
	gen := NewGenerator(nil, store, stubClock{now: time.Now()}, observability.NewMetrics(), zap.NewNop())

	batch := make([]domain.Transaction, 1000)
	for i := range batch {
		batch[i] = domain.Transaction{ID: fmt.Sprintf("txn-%d", i)}
	}

	if err := gen.insertInChunks(context.Background(), batch); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.batches) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(store.batches))
	}
	wantSizes := []int{450, 450, 100}
	total := 0
	for i, b := range store.batches {
		if len(b) != wantSizes[i] {
			t.Errorf("chunk %d: expected %d rows, got %d", i, wantSizes[i], len(b))
		}
		total += len(b)
	}
	if total != 1000 {
		t.Errorf("expected 1000 rows committed, got %d", total)
	}
	// Nothing dropped or reordered.
	if store.batches[0][0].ID != "txn-0" || store.batches[2][99].ID != "txn-999" {
		t.Error("chunking reordered rows")
	}
}
