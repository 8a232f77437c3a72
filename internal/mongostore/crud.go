// =============================================================================
// Retail Schema Loader - Invoice CRUD & Dual-Write Helpers
// =============================================================================
//
// Single-invoice operations, including the two that touch cross-collection
// consistency:
//
//   - DeleteInvoice is a dual write by contract: the invoice disappears from
//     the transaction-centric collection AND is pulled from every customer
//     document that embeds it. The pull is collection-wide, not scoped to
//     one customer, so even duplicated embeds from re-loads are retracted.
//
//   - UpdateItemQuantity touches the transaction-centric document only.
//     MirrorItemQuantity is the customer-centric counterpart; the CLI runs
//     both when asked to keep the schemas in agreement.
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

// CreateInvoice inserts one transaction-centric document.
func (s *Store) CreateInvoice(ctx context.Context, doc model.InvoiceDocument) error {
	if _, err := s.invoices.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create invoice %q: %w", doc.InvoiceNo, err)
	}
	return nil
}

// InvoiceByID reads one transaction-centric document by invoice number.
// Returns ErrNotFound when no such invoice is loaded.
func (s *Store) InvoiceByID(ctx context.Context, invoiceNo string) (model.InvoiceDocument, error) {
	var doc model.InvoiceDocument

	err := s.invoices.FindOne(ctx, bson.M{"_id": invoiceNo}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.InvoiceDocument{}, fmt.Errorf("invoice %q: %w", invoiceNo, ErrNotFound)
	}
	if err != nil {
		return model.InvoiceDocument{}, fmt.Errorf("failed to read invoice %q: %w", invoiceNo, err)
	}
	return doc, nil
}

// InvoicesByCustomer lists a customer's invoices from the transaction-centric
// collection, oldest first.
//
// PARAMETERS:
//   - customerID: The customer to query.
//   - limit: Maximum number of invoices returned; 0 means no limit.
func (s *Store) InvoicesByCustomer(ctx context.Context, customerID int64, limit int64) ([]model.InvoiceDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "invoice_date", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.invoices.Find(ctx, bson.M{"customer.id": customerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices for customer %d: %w", customerID, err)
	}

	var docs []model.InvoiceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode invoices for customer %d: %w", customerID, err)
	}
	return docs, nil
}

// CustomerByID reads one customer-centric document.
// Returns ErrNotFound when the customer has no loaded invoices.
func (s *Store) CustomerByID(ctx context.Context, customerID int64) (model.CustomerDocument, error) {
	var doc model.CustomerDocument

	err := s.customers.FindOne(ctx, bson.M{"_id": customerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.CustomerDocument{}, fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}
	if err != nil {
		return model.CustomerDocument{}, fmt.Errorf("failed to read customer %d: %w", customerID, err)
	}
	return doc, nil
}

// UpdateItemQuantity sets the quantity of one line item inside a
// transaction-centric document, matched by stock code. The customer-centric
// copy is left alone; see MirrorItemQuantity.
//
// RETURNS:
//   - The number of documents modified (0 or 1).
func (s *Store) UpdateItemQuantity(ctx context.Context, invoiceNo, stockCode string, quantity int64) (int64, error) {
	res, err := s.invoices.UpdateOne(ctx,
		bson.M{"_id": invoiceNo, "items.stock_code": stockCode},
		bson.M{"$set": bson.M{"items.$.quantity": quantity}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update quantity on invoice %q item %q: %w", invoiceNo, stockCode, err)
	}
	return res.ModifiedCount, nil
}

// MirrorItemQuantity applies the same quantity change to the embedded copy
// of the invoice inside the customer-centric collection. Array filters
// address the matching invoice and item; like DeleteInvoice, the update is
// collection-wide so duplicated embeds stay in agreement too.
//
// RETURNS:
//   - The number of customer documents modified.
func (s *Store) MirrorItemQuantity(ctx context.Context, invoiceNo, stockCode string, quantity int64) (int64, error) {
	res, err := s.customers.UpdateMany(ctx,
		bson.M{"invoices.invoice_no": invoiceNo},
		bson.M{"$set": bson.M{"invoices.$[inv].items.$[it].quantity": quantity}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"inv.invoice_no": invoiceNo},
				bson.M{"it.stock_code": stockCode},
			},
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mirror quantity on invoice %q item %q: %w", invoiceNo, stockCode, err)
	}
	return res.ModifiedCount, nil
}

// DeleteInvoice removes an invoice from both schemas: the document from the
// transaction-centric collection, and the embedded copy from every customer
// document that contains it.
//
// RETURNS:
//   - deleted: 1 if the transaction-centric document existed.
//   - retracted: The number of customer documents the invoice was pulled from.
func (s *Store) DeleteInvoice(ctx context.Context, invoiceNo string) (deleted int64, retracted int64, err error) {
	delRes, err := s.invoices.DeleteOne(ctx, bson.M{"_id": invoiceNo})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete invoice %q: %w", invoiceNo, err)
	}

	pullRes, err := s.customers.UpdateMany(ctx,
		bson.M{},
		bson.M{"$pull": bson.M{"invoices": bson.M{"invoice_no": invoiceNo}}},
	)
	if err != nil {
		return delRes.DeletedCount, 0, fmt.Errorf("failed to retract invoice %q from customers: %w", invoiceNo, err)
	}

	return delRes.DeletedCount, pullRes.ModifiedCount, nil
}
