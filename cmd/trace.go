package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jcmxo/98-pfm-traza-2025/internal/engine"
	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

var traceCmd = &cobra.Command{
	Use:   "trace <token-id>",
	Short: "Show the full provenance of a token",
	Long: `Walk a token's ancestry back to its raw materials and print the
lineage in dependency order: every ancestor appears before anything
made from it, and the queried token comes last.

Example:
  traza trace 42`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

var traceIDsOnly bool

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().BoolVar(&traceIDsOnly, "ids", false, "Print only the token ids, one per line")
}

func runTrace(_ *cobra.Command, args []string) error {
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid token id %q", args[0])
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	eng := engine.New(store, engine.Options{})
	defer func() { _ = eng.Close() }()

	ctx := context.Background()
	lineage, err := eng.Traceability(ctx, ledger.TokenID(id))
	if err != nil {
		return fmt.Errorf("tracing token %d: %w", id, err)
	}

	if traceIDsOnly {
		for _, tid := range lineage {
			fmt.Println(tid)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tOWNER")
	for _, tid := range lineage {
		tok, err := eng.Token(ctx, tid)
		if err != nil {
			return fmt.Errorf("loading token %d: %w", tid, err)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", tok.ID, tok.Kind, tok.Name, tok.Owner)
	}
	return w.Flush()
}
