package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jcmxo/98-pfm-traza-2025/internal/engine"
	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative ledger operations",
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant <address>",
	Short: "Provision an approved admin participant",
	Long: `Provision an admin directly in the ledger, bypassing the usual
register-then-approve flow. Meant for bootstrapping: a fresh ledger has
nobody who could approve the first registration.

Example:
  traza admin grant 0x1f9a --name "Plant operator"`,
	Args: cobra.ExactArgs(1),
	RunE: runAdminGrant,
}

var adminGrantName string

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered participants",
	Args:  cobra.NoArgs,
	RunE:  runAdminList,
}

var adminListStatus string

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminGrantCmd)
	adminCmd.AddCommand(adminListCmd)

	adminGrantCmd.Flags().StringVar(&adminGrantName, "name", "admin", "Display name for the new admin")
	adminListCmd.Flags().StringVar(&adminListStatus, "status", "", "Filter by status: pending, approved or rejected")
}

func runAdminGrant(_ *cobra.Command, args []string) error {
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := openStore()
	if err != nil {
		return err
	}
	eng := engine.New(store, engine.Options{})
	defer func() { _ = eng.Close() }()

	p, err := eng.ProvisionAdmin(context.Background(), ledger.Address(args[0]), adminGrantName)
	if err != nil {
		return fmt.Errorf("provisioning admin: %w", err)
	}

	fmt.Printf("Admin %s (%q) provisioned and approved\n", p.Address, p.Name)
	return nil
}

func runAdminList(_ *cobra.Command, _ []string) error {
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	var filter ledger.ListFilter
	if adminListStatus != "" {
		status, ok := ledger.ParseStatus(adminListStatus)
		if !ok {
			return fmt.Errorf("unknown status %q (want pending, approved or rejected)", adminListStatus)
		}
		filter.Status = &status
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	eng := engine.New(store, engine.Options{})
	defer func() { _ = eng.Close() }()

	participants, err := eng.Participants(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tROLE\tSTATUS\tNAME")
	for _, p := range participants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Address, p.Role, p.Status, p.Name)
	}
	return w.Flush()
}
