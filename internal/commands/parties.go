package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ponmo-books/ponmo/internal/customers"
	"github.com/ponmo-books/ponmo/internal/model"
)

type partyFlags struct {
	name, email, phone, address string
	openingType, openingAmount  string
	date                        string
}

func (f *partyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "name (required)")
	cmd.Flags().StringVar(&f.email, "email", "", "email")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone")
	cmd.Flags().StringVar(&f.address, "address", "", "address")
	cmd.Flags().StringVar(&f.openingType, "opening-type", string(model.OpeningNone), "opening balance type: none, debt, credit")
	cmd.Flags().StringVar(&f.openingAmount, "opening-amount", "", "opening balance amount")
	cmd.Flags().StringVar(&f.date, "date", "", "opening balance date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("name")
}

func (f *partyFlags) party() (customers.NewParty, error) {
	amount, err := parseAmount("opening-amount", f.openingAmount)
	if err != nil {
		return customers.NewParty{}, err
	}
	day, err := parseDate("date", f.date)
	if err != nil {
		return customers.NewParty{}, err
	}
	typ := model.OpeningBalanceType(f.openingType)
	switch typ {
	case model.OpeningNone, model.OpeningDebt, model.OpeningCredit:
	default:
		return customers.NewParty{}, fmt.Errorf("invalid --opening-type %q", f.openingType)
	}
	return customers.NewParty{
		Name:                 f.name,
		Email:                f.email,
		Phone:                f.phone,
		Address:              f.address,
		OpeningBalanceType:   typ,
		OpeningBalanceAmount: amount,
		OpeningDate:          day,
	}, nil
}

func newCustomerCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage customers and their balances",
	}

	var add partyFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a customer, booking any opening balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := add.party()
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				c, err := a.customers.CreateCustomer(cmd.Context(), a.scope, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added customer %s (%s)\n", c.Name, c.ID)
				return nil
			})
		},
	}
	add.register(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List customers with their current balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, func(a *app) error {
				all, err := a.customers.AllCustomersBalance(cmd.Context(), a.scope)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tDEPOSITS\tBALANCE")
				for _, s := range all {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.CustomerID, s.CustomerName, money(s.TotalDeposits), money(s.CurrentBalance))
				}
				return tw.Flush()
			})
		},
	}

	var asJSON bool
	balanceCmd := &cobra.Command{
		Use:   "balance <customer-id>",
		Short: "Show how a customer's balance is derived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, func(a *app) error {
				s, err := a.customers.GetCustomerBalanceSummary(cmd.Context(), a.scope, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), s)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintf(tw, "Customer\t%s\t\n", s.CustomerName)
				fmt.Fprintf(tw, "Opening balance (%s)\t%s\t\n", s.OpeningBalanceType, money(s.OpeningBalance))
				fmt.Fprintf(tw, "Deposits held\t%s\t\n", money(s.TotalDeposits))
				fmt.Fprintf(tw, "Sales\t%s\t\n", money(s.TotalSales))
				fmt.Fprintf(tw, "Paid at sale\t%s\t\n", money(s.PaymentsAtSale))
				fmt.Fprintf(tw, "Payments received\t%s\t\n", money(s.PaymentsReceived))
				fmt.Fprintf(tw, "Deposits applied\t%s\t\n", money(s.DepositsApplied))
				fmt.Fprintf(tw, "Current balance\t%s\t\n", money(s.CurrentBalance))
				return tw.Flush()
			})
		},
	}
	balanceCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	cmd.AddCommand(addCmd, listCmd, balanceCmd)
	return cmd
}

func newVendorCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendor",
		Short: "Manage vendors and what is owed to them",
	}

	var add partyFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a vendor, booking any opening balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := add.party()
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				v, err := a.customers.CreateVendor(cmd.Context(), a.scope, p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added vendor %s (%s)\n", v.Name, v.ID)
				return nil
			})
		},
	}
	add.register(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List vendors with the amount owed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, func(a *app) error {
				vendors, err := a.customers.ListVendors(cmd.Context(), a.scope)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tOWED")
				for _, v := range vendors {
					owed, err := a.customers.GetVendorBalance(cmd.Context(), a.scope, v.ID)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Name, money(owed))
				}
				return tw.Flush()
			})
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <vendor-id>",
		Short: "Show what is owed to a vendor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, func(a *app) error {
				owed, err := a.customers.GetVendorBalance(cmd.Context(), a.scope, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), money(owed))
				return nil
			})
		},
	}

	cmd.AddCommand(addCmd, listCmd, balanceCmd)
	return cmd
}
