// =============================================================================
// Retail Schema Loader - Secondary Indexes
// =============================================================================
//
// The three secondary indexes behind the benchmarked query patterns:
//   invoices_txn:       customer.id asc, invoice_date asc
//   customers_centric:  country asc
//
// Creation is idempotent; both the loader and the benchmark call this so
// either can run first.
//
// =============================================================================

package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the secondary indexes on both collections.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	invoiceIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer.id", Value: 1}}},
		{Keys: bson.D{{Key: "invoice_date", Value: 1}}},
	}
	if _, err := s.invoices.Indexes().CreateMany(ctx, invoiceIndexes); err != nil {
		return fmt.Errorf("failed to create invoice indexes: %w", err)
	}

	customerIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "country", Value: 1}}},
	}
	if _, err := s.customers.Indexes().CreateMany(ctx, customerIndexes); err != nil {
		return fmt.Errorf("failed to create customer indexes: %w", err)
	}

	s.log.Debug().Msg("secondary indexes ensured")
	return nil
}
