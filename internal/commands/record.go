package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ponmo-books/ponmo/internal/accounting"
	"github.com/ponmo-books/ponmo/internal/customers"
	"github.com/ponmo-books/ponmo/internal/model"
)

func newRecordCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a business event in the journal",
	}
	cmd.AddCommand(
		newRecordPurchaseCommand(g),
		newRecordProductionCommand(g),
		newRecordSaleCommand(g),
		newRecordDepositCommand(g),
		newRecordDepositUsageCommand(g),
		newRecordVendorPaymentCommand(g),
		newRecordExpenseCommand(g),
		newRecordPaymentCommand(g),
	)
	return cmd
}

func printRecorded(w io.Writer, what, entryID string) {
	fmt.Fprintf(w, "Recorded %s: entry %s\n", what, entryID)
}

func newRecordPurchaseCommand(g *globalFlags) *cobra.Command {
	var amount, method, vendor, date, ref, desc string
	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Record a raw-material purchase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := requireAmount("amount", amount)
			if err != nil {
				return err
			}
			day, err := dateOrToday("date", date)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				entryID, err := a.accounting.RecordPurchase(cmd.Context(), a.scope, accounting.Purchase{
					Date:        day,
					Description: desc,
					Reference:   ref,
					Amount:      amt,
					Method:      model.PaymentMethod(method),
					VendorID:    vendor,
				})
				if err != nil {
					return err
				}
				printRecorded(cmd.OutOrStdout(), "purchase", entryID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "purchase amount (required)")
	cmd.Flags().StringVar(&method, "method", string(model.PaymentOnAccount), "payment method: cash, bank_transfer, check, on_account")
	cmd.Flags().StringVar(&vendor, "vendor", "", "vendor id")
	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&ref, "ref", "", "reference, e.g. the vendor invoice")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRecordProductionCommand(g *globalFlags) *cobra.Command {
	var raw, processing, date, ref string
	var pieces int
	cmd := &cobra.Command{
		Use:   "production",
		Short: "Record a production run (materials to WIP to finished goods)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawCost, err := requireAmount("raw", raw)
			if err != nil {
				return err
			}
			procCost, err := parseAmount("processing", processing)
			if err != nil {
				return err
			}
			day, err := dateOrToday("date", date)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				res, err := a.accounting.RecordProduction(cmd.Context(), a.scope, accounting.Production{
					Date:           day,
					Reference:      ref,
					Pieces:         pieces,
					RawCost:        rawCost,
					ProcessingCost: procCost,
				})
				if res.TransferEntryID != "" {
					printRecorded(cmd.OutOrStdout(), "production transfer", res.TransferEntryID)
				}
				if err != nil {
					return err
				}
				printRecorded(cmd.OutOrStdout(), "production completion", res.CompletionEntryID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&raw, "raw", "", "raw material cost (required)")
	cmd.Flags().StringVar(&processing, "processing", "", "processing cost")
	cmd.Flags().IntVar(&pieces, "pieces", 0, "pieces produced")
	cmd.Flags().StringVar(&ref, "ref", "", "production run reference (required)")
	cmd.Flags().StringVar(&date, "date", "", "production date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("raw")
	_ = cmd.MarkFlagRequired("ref")
	return cmd
}

func newRecordSaleCommand(g *globalFlags) *cobra.Command {
	var customer, invoice, amount, paid, method, cogs, date string
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Record a sale, applying any held customer deposit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := requireAmount("amount", amount)
			if err != nil {
				return err
			}
			paidAmt, err := parseAmount("paid", paid)
			if err != nil {
				return err
			}
			cogsAmt, err := parseAmount("cogs", cogs)
			if err != nil {
				return err
			}
			day, err := dateOrToday("date", date)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				res, err := a.customers.RecordSale(cmd.Context(), a.scope, accounting.Sale{
					Date:            day,
					CustomerID:      customer,
					InvoiceNumber:   invoice,
					Amount:          amt,
					PaymentReceived: paidAmt,
					Method:          model.PaymentMethod(method),
					COGS:            cogsAmt,
				})
				if res.SaleEntryID != "" {
					printRecorded(cmd.OutOrStdout(), "sale", res.SaleEntryID)
				}
				if err != nil {
					var partial *accounting.PartialError
					if errors.As(err, &partial) {
						fmt.Fprintln(cmd.ErrOrStderr(), "warning: sale posted but the customer deposit was not applied")
					}
					return err
				}
				if res.DepositApplied.IsPositive() {
					fmt.Fprintf(cmd.OutOrStdout(), "Applied %s from customer deposit\n", money(res.DepositApplied))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer id (required)")
	cmd.Flags().StringVar(&invoice, "invoice", "", "invoice number (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "sale amount (required)")
	cmd.Flags().StringVar(&paid, "paid", "0", "payment received at sale")
	cmd.Flags().StringVar(&method, "method", string(model.PaymentCash), "payment method: cash, bank_transfer, check")
	cmd.Flags().StringVar(&cogs, "cogs", "", "cost of the goods sold")
	cmd.Flags().StringVar(&date, "date", "", "sale date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("invoice")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRecordDepositCommand(g *globalFlags) *cobra.Command {
	var customer, amount, method, ref, notes, date string
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Record a customer deposit received ahead of a sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := requireAmount("amount", amount)
			if err != nil {
				return err
			}
			day, err := dateOrToday("date", date)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				row, err := a.customers.ReceiveDeposit(cmd.Context(), a.scope, customers.Deposit{
					CustomerID: customer,
					Amount:     amt,
					Date:       day,
					Method:     model.PaymentMethod(method),
					Reference:  ref,
					Notes:      notes,
				})
				if err != nil {
					return err
				}
				printRecorded(cmd.OutOrStdout(), "deposit", row.JournalEntryID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer id (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "deposit amount (required)")
	cmd.Flags().StringVar(&method, "method", string(model.PaymentCash), "payment method: cash, bank_transfer, check")
	cmd.Flags().StringVar(&ref, "ref", "", "reference (default DEP-<timestamp>)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().StringVar(&date, "date", "", "deposit date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRecordDepositUsageCommand(g *globalFlags) *cobra.Command {
	var customer, amount, ref, date string
	cmd := &cobra.Command{
		Use:   "deposit-usage",
		Short: "Apply a held customer deposit against their receivable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := requireAmount("amount", amount)
			if err != nil {
				return err
			}
			day, err := dateOrToday("date", date)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				row, err := a.customers.ApplyDeposit(cmd.Context(), a.scope, customer, amt, day, ref)
				if err != nil {
					return err
				}
				printRecorded(cmd.OutOrStdout(), "deposit usage", row.JournalEntryID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer id (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to apply (required)")
	cmd.Flags().StringVar(&ref, "ref", "", "invoice the deposit pays")
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRecordVendorPaymentCommand(g *globalFlags) *cobra.Command {
	var vendor, amount, method, ref, desc, date string
	cmd := &cobra.Command{
		Use:   "vendor-payment",
		Short: "Record a payment to a vendor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := requireAmount("amount", amount)
			if err != nil {
				return err
			}
			day, err := dateOrToday("date", date)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				entryID, err := a.accounting.RecordVendorPayment(cmd.Context(), a.scope, accounting.VendorPayment{
					Date:        day,
					VendorID:    vendor,
					Amount:      amt,
					Method:      model.PaymentMethod(method),
					Reference:   ref,
					Description: desc,
				})
				if err != nil {
					return err
				}
				printRecorded(cmd.OutOrStdout(), "vendor payment", entryID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&vendor, "vendor", "", "vendor id (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "payment amount (required)")
	cmd.Flags().StringVar(&method, "method", string(model.PaymentBankTransfer), "payment method: cash, bank_transfer, check")
	cmd.Flags().StringVar(&ref, "ref", "", "reference (default PAY-<timestamp>)")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("vendor")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRecordExpenseCommand(g *globalFlags) *cobra.Command {
	var account, amount, method, desc, ref, vendor, date string
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := requireAmount("amount", amount)
			if err != nil {
				return err
			}
			day, err := dateOrToday("date", date)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				entryID, err := a.accounting.RecordExpense(cmd.Context(), a.scope, accounting.Expense{
					Date:        day,
					AccountCode: account,
					Amount:      amt,
					Method:      model.PaymentMethod(method),
					Description: desc,
					Reference:   ref,
					VendorID:    vendor,
				})
				if err != nil {
					return err
				}
				printRecorded(cmd.OutOrStdout(), "expense", entryID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "expense account code, e.g. 5500 (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "expense amount (required)")
	cmd.Flags().StringVar(&method, "method", string(model.PaymentCash), "payment method: cash, bank_transfer, check, credit_card, on_account")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&ref, "ref", "", "reference")
	cmd.Flags().StringVar(&vendor, "vendor", "", "vendor id")
	cmd.Flags().StringVar(&date, "date", "", "expense date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRecordPaymentCommand(g *globalFlags) *cobra.Command {
	var customer, amount, method, ref, date string
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Record a customer payment against an open receivable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := requireAmount("amount", amount)
			if err != nil {
				return err
			}
			day, err := dateOrToday("date", date)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				if _, err := a.customers.GetCustomer(cmd.Context(), a.scope, customer); err != nil {
					return err
				}
				entryID, err := a.accounting.RecordPaymentReceived(cmd.Context(), a.scope, accounting.CustomerPayment{
					Date:       day,
					CustomerID: customer,
					Amount:     amt,
					Method:     model.PaymentMethod(method),
					Reference:  ref,
				})
				if err != nil {
					return err
				}
				printRecorded(cmd.OutOrStdout(), "payment", entryID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer id (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount received (required)")
	cmd.Flags().StringVar(&method, "method", string(model.PaymentBankTransfer), "payment method: cash, bank_transfer, check")
	cmd.Flags().StringVar(&ref, "ref", "", "reference (default PMT-<timestamp>)")
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
