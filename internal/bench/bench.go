// =============================================================================
// Retail Schema Loader - CRUD Benchmark
// =============================================================================
//
// Times the same four CRUD shapes against both document schemas so the two
// designs can be compared on loaded data. Eight operations run in a fixed
// order, each repeated a configurable number of iterations, reporting the
// mean wall-clock time in milliseconds:
//
//   TX Create / Read (by customer) / Update (line qty) / Delete
//   CC Create / Read (customer doc) / Update (nested) / Delete (pull invoice)
//
// The harness samples one loaded invoice (its id, customer id, and first
// stock code) so reads and updates hit real documents. Create/delete pairs
// use synthetic documents whose invoice numbers carry a UUID suffix, and a
// sentinel customer id far above the dataset's id range, so repeated or
// concurrent runs never collide with loaded data or each other.
//
// A failing operation is reported as an error line and the run continues;
// only a failed sample aborts the whole benchmark.
//
// =============================================================================

package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ginjaninja78/retail-schema-loader/internal/model"
	"github.com/ginjaninja78/retail-schema-loader/internal/mongostore"
)

// benchCustomerID is the customer-centric upsert target for the synthetic
// create/delete pair. Dataset customer ids top out well below it.
const benchCustomerID = int64(99999)

// defaultIterations matches the reference timing depth.
const defaultIterations = 5

// Options control one benchmark run.
type Options struct {
	// Iterations is the number of timed repetitions per operation.
	Iterations int

	// ReadLimit caps the transaction-centric read, which drains a full
	// cursor of one customer's invoices.
	ReadLimit int64

	// Explain also captures executionStats for the two read patterns.
	Explain bool
}

// Sample identifies the loaded documents the fair operations run against.
type Sample struct {
	InvoiceNo  string
	CustomerID int64
	StockCode  string
}

// Measurement is the outcome of one timed operation.
type Measurement struct {
	// Name identifies the operation.
	Name string

	// MeanMS is the mean duration over all iterations, in milliseconds.
	MeanMS float64

	// Err is set when the operation failed; MeanMS is meaningless then.
	Err error
}

// Report is the full outcome of a benchmark run.
type Report struct {
	Sample       Sample
	Iterations   int
	Measurements []Measurement

	// TxExplain and CCExplain hold indented executionStats JSON for the
	// two read patterns; empty unless Options.Explain was set.
	TxExplain string
	CCExplain string
}

// Runner executes benchmark runs against a connected store.
type Runner struct {
	store *mongostore.Store
	opts  Options
	log   zerolog.Logger
}

// New creates a Runner. Zero option values fall back to the defaults.
func New(store *mongostore.Store, opts Options, log zerolog.Logger) *Runner {
	if opts.Iterations <= 0 {
		opts.Iterations = defaultIterations
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 200
	}
	return &Runner{store: store, opts: opts, log: log}
}

// operation pairs a display name with the timed body.
type operation struct {
	name string
	fn   func(context.Context) error
}

// Run executes the full benchmark.
//
// RETURNS:
//   - The report with one measurement per operation, in run order.
//   - An error only when the run cannot start (no loaded invoice to sample,
//     or index creation failed); per-operation failures live in the report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{Iterations: r.opts.Iterations}

	// Indexes are part of the measured setup: both read patterns are only
	// meaningful with the secondary indexes in place.
	if err := r.store.EnsureIndexes(ctx); err != nil {
		return report, err
	}

	sample, err := r.sample(ctx)
	if err != nil {
		return report, err
	}
	report.Sample = sample
	r.log.Info().
		Str("invoice", sample.InvoiceNo).
		Int64("customer", sample.CustomerID).
		Str("stock_code", sample.StockCode).
		Msg("sampled loaded documents")

	for _, op := range r.operations(sample) {
		meanMS, err := r.timeit(ctx, op.fn)
		if err != nil {
			r.log.Warn().Str("operation", op.name).Err(err).Msg("benchmark operation failed")
			report.Measurements = append(report.Measurements, Measurement{Name: op.name, Err: err})
			continue
		}
		report.Measurements = append(report.Measurements, Measurement{Name: op.name, MeanMS: meanMS})
	}

	if r.opts.Explain {
		if err := r.explain(ctx, sample, &report); err != nil {
			return report, err
		}
	}

	return report, nil
}

// sample picks one loaded invoice that has a customer id and at least one
// item, so every fair operation has a real target.
func (r *Runner) sample(ctx context.Context) (Sample, error) {
	filter := bson.M{
		"customer.id": bson.M{"$ne": nil},
		"items.0":     bson.M{"$exists": true},
	}
	projection := bson.M{"_id": 1, "customer.id": 1, "items.stock_code": 1}

	var doc struct {
		InvoiceNo string `bson:"_id"`
		Customer  struct {
			ID int64 `bson:"id"`
		} `bson:"customer"`
		Items []struct {
			StockCode string `bson:"stock_code"`
		} `bson:"items"`
	}

	err := r.store.Invoices().
		FindOne(ctx, filter, options.FindOne().SetProjection(projection)).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Sample{}, fmt.Errorf("no loaded invoice with a customer id to sample; run a load first")
	}
	if err != nil {
		return Sample{}, fmt.Errorf("failed to sample an invoice: %w", err)
	}

	return Sample{
		InvoiceNo:  doc.InvoiceNo,
		CustomerID: doc.Customer.ID,
		StockCode:  doc.Items[0].StockCode,
	}, nil
}

// timeit runs fn the configured number of iterations and returns the mean in
// milliseconds. The first failure aborts the remaining iterations.
func (r *Runner) timeit(ctx context.Context, fn func(context.Context) error) (float64, error) {
	var total time.Duration
	for i := 0; i < r.opts.Iterations; i++ {
		start := time.Now()
		if err := fn(ctx); err != nil {
			return 0, err
		}
		total += time.Since(start)
	}
	return total.Seconds() * 1000 / float64(r.opts.Iterations), nil
}

// operations builds the eight timed bodies in their fixed run order.
func (r *Runner) operations(sample Sample) []operation {
	invoices := r.store.Invoices()
	customers := r.store.Customers()

	// Fresh synthetic ids per run; the insert/delete pairs reuse them
	// across iterations.
	txCreateID := syntheticID("BENCH_TXN_C")
	txDeleteID := syntheticID("BENCH_TXN_D")
	ccInvoiceID := syntheticID("BENCH_CC")

	return []operation{
		{"TX Create", func(ctx context.Context) error {
			doc := syntheticInvoice(txCreateID, 99998, model.InvoiceItem{
				StockCode:   "T1",
				Description: stringPtr("Test Item"),
				UnitPrice:   floatPtr(1.11),
				Quantity:    int64Ptr(2),
			})
			if _, err := invoices.InsertOne(ctx, doc); err != nil {
				return err
			}
			_, err := invoices.DeleteOne(ctx, bson.M{"_id": txCreateID})
			return err
		}},

		{"TX Read (by customer)", func(ctx context.Context) error {
			cursor, err := invoices.Find(ctx, bson.M{"customer.id": sample.CustomerID},
				options.Find().SetLimit(r.opts.ReadLimit))
			if err != nil {
				return err
			}
			var docs []bson.M
			return cursor.All(ctx, &docs)
		}},

		{"TX Update (line qty)", func(ctx context.Context) error {
			_, err := invoices.UpdateOne(ctx,
				bson.M{"_id": sample.InvoiceNo, "items.stock_code": sample.StockCode},
				bson.M{"$set": bson.M{"items.$.quantity": 9}})
			return err
		}},

		{"TX Delete", func(ctx context.Context) error {
			doc := syntheticInvoice(txDeleteID, 99997, model.InvoiceItem{
				StockCode:   "T2",
				Description: stringPtr("Tmp"),
				UnitPrice:   floatPtr(1.0),
				Quantity:    int64Ptr(1),
			})
			if _, err := invoices.InsertOne(ctx, doc); err != nil {
				return err
			}
			_, err := invoices.DeleteOne(ctx, bson.M{"_id": txDeleteID})
			return err
		}},

		{"CC Create", func(ctx context.Context) error {
			embedded := model.EmbeddedInvoice{
				InvoiceNo: ccInvoiceID,
				Items: []model.EmbeddedItem{
					{StockCode: "T1", Quantity: int64Ptr(2), UnitPrice: floatPtr(1.11)},
				},
			}
			_, err := customers.UpdateOne(ctx,
				bson.M{"_id": benchCustomerID},
				bson.M{
					"$setOnInsert": bson.M{"country": "Testland"},
					"$addToSet":    bson.M{"invoices": embedded},
				},
				options.Update().SetUpsert(true))
			if err != nil {
				return err
			}
			_, err = customers.UpdateOne(ctx,
				bson.M{"_id": benchCustomerID},
				bson.M{"$pull": bson.M{"invoices": bson.M{"invoice_no": ccInvoiceID}}})
			return err
		}},

		{"CC Read (customer doc)", func(ctx context.Context) error {
			var doc bson.M
			err := customers.FindOne(ctx, bson.M{"_id": sample.CustomerID}).Decode(&doc)
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil
			}
			return err
		}},

		{"CC Update (nested)", func(ctx context.Context) error {
			_, err := customers.UpdateOne(ctx,
				bson.M{"_id": sample.CustomerID, "invoices.invoice_no": sample.InvoiceNo},
				bson.M{"$set": bson.M{"invoices.$[inv].items.0.quantity": 8}},
				options.Update().SetArrayFilters(options.ArrayFilters{
					Filters: []interface{}{bson.M{"inv.invoice_no": sample.InvoiceNo}},
				}))
			return err
		}},

		{"CC Delete (pull invoice)", func(ctx context.Context) error {
			_, err := customers.UpdateOne(ctx,
				bson.M{"_id": sample.CustomerID},
				bson.M{"$pull": bson.M{"invoices": bson.M{"invoice_no": sample.InvoiceNo}}})
			return err
		}},
	}
}

// explain captures executionStats for the two read patterns.
func (r *Runner) explain(ctx context.Context, sample Sample, report *Report) error {
	stats, err := r.store.ExplainFind(ctx, r.store.Invoices().Name(),
		bson.M{"customer.id": sample.CustomerID})
	if err != nil {
		return fmt.Errorf("failed to explain transaction-centric read: %w", err)
	}
	report.TxExplain = stats

	stats, err = r.store.ExplainFind(ctx, r.store.Customers().Name(),
		bson.M{"_id": sample.CustomerID})
	if err != nil {
		return fmt.Errorf("failed to explain customer-centric read: %w", err)
	}
	report.CCExplain = stats
	return nil
}

// syntheticInvoice builds the throwaway document for the insert/delete pairs.
func syntheticInvoice(invoiceNo string, customerID int64, item model.InvoiceItem) model.InvoiceDocument {
	return model.InvoiceDocument{
		InvoiceNo: invoiceNo,
		Customer: model.CustomerRef{
			ID:      int64Ptr(customerID),
			Country: stringPtr("Testland"),
		},
		Items: []model.InvoiceItem{item},
	}
}

// syntheticID builds a run-unique document id with a recognizable prefix.
func syntheticID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
