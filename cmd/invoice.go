// =============================================================================
// Retail Schema Loader - Invoice Command
// =============================================================================
//
// This file defines the 'invoice' command group: the maintenance operations
// that touch loaded invoices after the fact. Because every invoice lives in
// two places - as a document in the transaction-centric collection and
// embedded in a customer document - these are the operations where the two
// schemas have to be kept consistent by hand.
//
// COMMAND USAGE:
//   retailloader invoice get INVOICE_NO
//   retailloader invoice by-customer CUSTOMER_ID [--limit N]
//   retailloader invoice update-quantity INVOICE_NO STOCK_CODE QTY [--mirror]
//   retailloader invoice delete INVOICE_NO
//
// DUAL-WRITE SEMANTICS:
//   delete          : Removes the invoice document AND pulls the embedded
//                     copy out of every customer document.
//   update-quantity : Updates the invoice document only, unless --mirror is
//                     given; without it the embedded copies keep the old
//                     quantity, which the command points out.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ginjaninja78/retail-schema-loader/internal/mongostore"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// byCustomerLimit caps the by-customer listing.
var byCustomerLimit int64

// updateMirror also updates the embedded copy in the customer document.
var updateMirror bool

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// invoiceCmd groups the maintenance subcommands.
var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Maintenance operations on loaded invoices",
	Long: `Maintenance operations on loaded invoices: read them back, adjust line
quantities, and delete them from both schemas at once.`,
}

// invoiceGetCmd prints one transaction-centric document.
var invoiceGetCmd = &cobra.Command{
	Use:   "get INVOICE_NO",
	Short: "Print one transaction-centric invoice document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvoiceGet(cmd, args[0])
	},
}

// invoiceByCustomerCmd lists a customer's invoices.
var invoiceByCustomerCmd = &cobra.Command{
	Use:   "by-customer CUSTOMER_ID",
	Short: "List a customer's invoices, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvoiceByCustomer(cmd, args[0])
	},
}

// invoiceUpdateQuantityCmd sets a line-item quantity.
var invoiceUpdateQuantityCmd = &cobra.Command{
	Use:   "update-quantity INVOICE_NO STOCK_CODE QTY",
	Short: "Set the quantity of one line item",
	Long: `Set the quantity of one line item on the transaction-centric document.

The same invoice is also embedded in its customer's document. That copy is
left untouched unless --mirror is given, so a plain update makes the two
schemas disagree about the quantity until the next full reload.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvoiceUpdateQuantity(cmd, args[0], args[1], args[2])
	},
}

// invoiceDeleteCmd removes an invoice from both schemas.
var invoiceDeleteCmd = &cobra.Command{
	Use:   "delete INVOICE_NO",
	Short: "Delete an invoice from both schemas",
	Long: `Delete the transaction-centric invoice document and pull the embedded copy
out of every customer document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvoiceDelete(cmd, args[0])
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init wires the subcommands and their flags.
func init() {
	rootCmd.AddCommand(invoiceCmd)
	invoiceCmd.AddCommand(invoiceGetCmd)
	invoiceCmd.AddCommand(invoiceByCustomerCmd)
	invoiceCmd.AddCommand(invoiceUpdateQuantityCmd)
	invoiceCmd.AddCommand(invoiceDeleteCmd)

	invoiceByCustomerCmd.Flags().Int64Var(
		&byCustomerLimit,
		"limit",
		200,
		"Maximum number of invoices to list (0 = no limit)",
	)

	invoiceUpdateQuantityCmd.Flags().BoolVar(
		&updateMirror,
		"mirror",
		false,
		"Also update the embedded copy in the customer-centric document",
	)
}

// =============================================================================
// SUBCOMMAND FUNCTIONS
// =============================================================================

// runInvoiceGet fetches and prints one invoice document as JSON.
func runInvoiceGet(cmd *cobra.Command, invoiceNo string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	doc, err := store.InvoiceByID(ctx, invoiceNo)
	if errors.Is(err, mongostore.ErrNotFound) {
		return fmt.Errorf("invoice %q not found", invoiceNo)
	}
	if err != nil {
		return err
	}

	out, err := bson.MarshalExtJSONIndent(doc, false, false, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render invoice %q: %w", invoiceNo, err)
	}
	fmt.Println(string(out))
	return nil
}

// runInvoiceByCustomer lists a customer's invoices, oldest first.
func runInvoiceByCustomer(cmd *cobra.Command, rawCustomerID string) error {
	ctx := cmd.Context()

	customerID, err := strconv.ParseInt(rawCustomerID, 10, 64)
	if err != nil {
		return fmt.Errorf("customer id %q is not an integer", rawCustomerID)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	docs, err := store.InvoicesByCustomer(ctx, customerID, byCustomerLimit)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Printf("No invoices loaded for customer %d.\n", customerID)
		return nil
	}

	fmt.Printf("Customer %d: %d invoice(s)\n", customerID, len(docs))
	for _, doc := range docs {
		date := "unknown date"
		if doc.InvoiceDate != nil {
			date = doc.InvoiceDate.Format("2006-01-02 15:04")
		}
		marker := " "
		if doc.IsCancellation {
			marker = "C"
		}
		fmt.Printf("  %s %-10s %s  %d item(s)\n", marker, doc.InvoiceNo, date, len(doc.Items))
	}
	return nil
}

// runInvoiceUpdateQuantity sets one line quantity, optionally mirroring it
// into the customer-centric copy.
func runInvoiceUpdateQuantity(cmd *cobra.Command, invoiceNo, stockCode, rawQuantity string) error {
	ctx := cmd.Context()

	quantity, err := strconv.ParseInt(rawQuantity, 10, 64)
	if err != nil {
		return fmt.Errorf("quantity %q is not an integer", rawQuantity)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	modified, err := store.UpdateItemQuantity(ctx, invoiceNo, stockCode, quantity)
	if err != nil {
		return err
	}
	if modified == 0 {
		return fmt.Errorf("no line item %s on invoice %q (or quantity already %d)", stockCode, invoiceNo, quantity)
	}
	fmt.Printf("Invoice %s: item %s quantity set to %d.\n", invoiceNo, stockCode, quantity)

	if !updateMirror {
		fmt.Println("Note: the embedded copy in the customer-centric collection keeps the old quantity (use --mirror to update it too).")
		return nil
	}

	mirrored, err := store.MirrorItemQuantity(ctx, invoiceNo, stockCode, quantity)
	if err != nil {
		return err
	}
	if mirrored == 0 {
		fmt.Println("No customer document embeds this invoice; nothing to mirror.")
		return nil
	}
	fmt.Printf("Mirrored into %d customer document(s).\n", mirrored)
	return nil
}

// runInvoiceDelete removes the invoice from both schemas.
func runInvoiceDelete(cmd *cobra.Command, invoiceNo string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	deleted, retracted, err := store.DeleteInvoice(ctx, invoiceNo)
	if err != nil {
		return err
	}

	if deleted == 0 {
		fmt.Printf("Invoice %q was not in the transaction-centric collection.\n", invoiceNo)
	} else {
		fmt.Printf("Deleted invoice %s.\n", invoiceNo)
	}
	fmt.Printf("Removed the embedded copy from %d customer document(s).\n", retracted)
	return nil
}
