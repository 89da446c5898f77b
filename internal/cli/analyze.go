package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clay-good/reviewr/internal/catalog"
	"github.com/clay-good/reviewr/internal/config"
	"github.com/clay-good/reviewr/internal/engine"
	"github.com/clay-good/reviewr/internal/finding"
	"github.com/clay-good/reviewr/internal/output"
)

// Shared analyze flags
var (
	flagInclude     string
	flagExclude     string
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagCatalog     string
	flagParallelism int
	flagDisable     string
	flagCache       bool
)

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagInclude, "include", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, info, low, medium, high, critical)")
	cmd.Flags().StringVar(&flagCatalog, "catalog", "", "Additional taint catalog YAML file")
	cmd.Flags().IntVar(&flagParallelism, "parallelism", 0, "Number of files analyzed concurrently (0 = number of CPUs)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "Analyzers to skip (comma-separated: security, taint, metrics, semantic)")
	cmd.Flags().BoolVar(&flagCache, "cache", false, "Reuse cached results for unchanged files")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagOut != "" {
		m["out"] = flagOut
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagCatalog != "" {
		m["catalogFile"] = flagCatalog
	}
	if flagParallelism > 0 {
		m["parallelism"] = fmt.Sprintf("%d", flagParallelism)
	}
	if flagCache {
		m["cache"] = "true"
	}
	return m
}

// loadConfig merges flag overrides on top of the layered config, plus the
// list-valued flags that don't fit the string override map.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return config.Config{}, err
	}
	if flagInclude != "" {
		cfg.Include = splitComma(flagInclude)
	}
	if flagExclude != "" {
		cfg.Exclude = append(cfg.Exclude, splitComma(flagExclude)...)
	}
	if flagDisable != "" {
		cfg.Disable = splitComma(flagDisable)
	}
	return cfg, nil
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Analyze source files and report findings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		runAnalysis(ctx, args, cfg)
		return nil
	},
}

func runAnalysis(ctx context.Context, paths []string, cfg config.Config) {
	eng, err := engine.New(cfg, engine.Options{Logger: newLogger()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var catErr *catalog.Error
		if errors.As(err, &catErr) {
			exitCode = ExitCatalogError
		} else {
			exitCode = ExitRuntimeError
		}
		return
	}

	report, err := eng.AnalyzePaths(ctx, paths, cfg.Parallelism)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if err := output.WriteReport(report, cfg.Format, cfg.Out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	// Check fail-on threshold
	if cfg.FailOn != "none" && cfg.FailOn != "" {
		for _, f := range report.Findings {
			if finding.MeetsThreshold(f.Severity, cfg.FailOn) {
				exitCode = ExitFindings
				return
			}
		}
	}
}

func init() {
	addAnalyzeFlags(analyzeCmd)
}
