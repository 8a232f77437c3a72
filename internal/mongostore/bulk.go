// =============================================================================
// Retail Schema Loader - Bulk Writes
// =============================================================================
//
// Bulk write paths for the load pass. Both are unordered and tolerate
// duplicate-key conflicts: re-running a load over already-loaded data must
// not fail, it must report how much was skipped. Any write error other than
// a duplicate key aborts the pass.
//
// DUPLICATE POLICY:
//   A bulk error is tolerated iff every write error in it carries code 11000
//   (duplicate key) and no write-concern error is present. One unexpected
//   code among the duplicates fails the whole pass, matching the "surface
//   anything that is not a rerun artifact" contract.
//
// =============================================================================

package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ginjaninja78/retail-schema-loader/internal/model"
)

// duplicateKeyCode is the server's error code for unique key conflicts.
const duplicateKeyCode = 11000

// BulkResult summarizes one tolerant bulk write.
type BulkResult struct {
	// Written is the number of operations that applied.
	Written int

	// Duplicates is the number of duplicate-key conflicts ignored.
	Duplicates int

	// Created is the number of documents newly created by upserts.
	// Zero on the insert path.
	Created int
}

// InsertInvoices bulk-inserts transaction-centric documents, unordered.
//
// PARAMETERS:
//   - ctx: Operation context.
//   - docs: The documents for one pass; may be empty.
//
// RETURNS:
//   - Counts of inserted documents and ignored duplicates.
//   - An error for any non-duplicate write failure.
func (s *Store) InsertInvoices(ctx context.Context, docs []model.InvoiceDocument) (BulkResult, error) {
	if len(docs) == 0 {
		return BulkResult{}, nil
	}

	payload := make([]interface{}, len(docs))
	for i := range docs {
		payload[i] = docs[i]
	}

	_, err := s.invoices.InsertMany(ctx, payload, options.InsertMany().SetOrdered(false))
	if err != nil {
		dups, ok := duplicatesOnly(err)
		if !ok {
			return BulkResult{}, fmt.Errorf("bulk insert of %d invoices failed: %w", len(docs), err)
		}
		return BulkResult{Written: len(docs) - dups, Duplicates: dups}, nil
	}

	return BulkResult{Written: len(docs)}, nil
}

// UpsertCustomers applies customer append operations as one unordered bulk.
//
// Each operation upserts on the customer id: country is written only when
// the document is created ($setOnInsert), and the embedded invoice is
// appended. With dedupe enabled the append uses $addToSet, so re-running a
// load skips exact duplicates of already-embedded invoices; the default
// $push keeps the reference at-least-once behavior.
func (s *Store) UpsertCustomers(ctx context.Context, ops []model.CustomerUpsert, dedupe bool) (BulkResult, error) {
	if len(ops) == 0 {
		return BulkResult{}, nil
	}

	appendOp := "$push"
	if dedupe {
		appendOp = "$addToSet"
	}

	models := make([]mongo.WriteModel, len(ops))
	for i, op := range ops {
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": op.CustomerID}).
			SetUpdate(bson.M{
				"$setOnInsert": bson.M{"country": op.Country},
				appendOp:       bson.M{"invoices": op.Invoice},
			}).
			SetUpsert(true)
	}

	res, err := s.customers.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		dups, ok := duplicatesOnly(err)
		if !ok {
			return BulkResult{}, fmt.Errorf("bulk upsert of %d customer ops failed: %w", len(ops), err)
		}
		result := BulkResult{Written: len(ops) - dups, Duplicates: dups}
		if res != nil {
			result.Created = int(res.UpsertedCount)
		}
		return result, nil
	}

	return BulkResult{Written: len(ops), Created: int(res.UpsertedCount)}, nil
}

// duplicatesOnly reports whether a bulk error consists purely of duplicate
// key conflicts, and how many.
func duplicatesOnly(err error) (int, bool) {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return 0, false
	}
	if bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return 0, false
	}

	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return 0, false
		}
	}
	return len(bwe.WriteErrors), true
}
