package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clay-good/reviewr/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the taint source/sink/sanitizer catalog",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the effective catalog entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		cat, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitCatalogError
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tROLE\tCATEGORY\tLANGUAGE\tSEVERITY")
		for _, e := range cat.Entries() {
			lang := string(e.Language)
			if lang == "" {
				lang = "any"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Role, e.Category, lang, e.Severity)
		}
		return tw.Flush()
	},
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a catalog YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitCatalogError
			return nil
		}

		sources, sinks, sanitizers := cat.Len()
		fmt.Fprintf(os.Stdout, "%s: valid (%d sources, %d sinks, %d sanitizers including builtins)\n",
			args[0], sources, sinks, sanitizers)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
}
