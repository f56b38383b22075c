package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"eduatlas/internal/config"
	"eduatlas/internal/countries"
	"eduatlas/internal/dataset"
	"eduatlas/internal/enrich"
	"eduatlas/internal/report"
)

var (
	// Global flags
	cfgPath    string
	inputPath  string
	outputPath string
	verbose    bool

	// Resolved configuration and logger, tagged with the run id
	cfg    *config.Config
	logger *zap.Logger
	runID  string
)

var rootCmd = &cobra.Command{
	Use:   "eduatlas",
	Short: "eduatlas - youth education completion report generator",
	Long: `eduatlas builds a single self-contained HTML report relating youth
education completion rates to economic and health indicators.

It loads one pre-merged indicator table (CSV, TSV or XLSX), resolves country
names against an embedded ISO 3166-1 registry, assigns income tiers and
coarse regions per row, and renders a fixed sequence of charts with
narrative commentary.

Run without arguments to generate the report.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		runID = uuid.NewString()

		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapLevel(cfg.LogLevel))
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build(zap.Fields(zap.String("run_id", runID)))
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the full HTML report",
	Long: `Runs the whole pipeline once: load, enrich, filter, render every
chart in document order, and write the report file.`,
	RunE: runGenerate,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check dataset health without writing a report",
	Long: `Loads and enriches the input, then prints what the report run would
keep and drop: row counts, rows missing the observation value, and
unresolvable country names with near-miss registry suggestions.

Exits non-zero only when the input cannot be loaded; data-quality findings
are informational.`,
	RunE: runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "eduatlas.yaml", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "input table, overrides the configured path")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "report file, overrides the configured path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if inputPath != "" {
		cfg.Input = inputPath
	}
	if outputPath != "" {
		cfg.Output = outputPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// zapLevel maps the configured log level to zap's. Validate has already
// rejected anything outside the four known names.
func zapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	reg, err := countries.NewRegistry()
	if err != nil {
		return fmt.Errorf("country registry: %w", err)
	}

	table, err := dataset.Load(cfg.Input, cfg.Columns)
	if err != nil {
		return err
	}
	logger.Info("rows loaded", zap.String("input", cfg.Input), zap.Int("rows", len(table)))

	nar, err := report.Generate(cfg, reg, table, logger, runID)
	if err != nil {
		return err
	}

	fmt.Printf("Report written to %s (%d rows kept of %d read)\n", cfg.Output, nar.RowsKept, nar.RowsRead)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	reg, err := countries.NewRegistry()
	if err != nil {
		return fmt.Errorf("country registry: %w", err)
	}

	table, err := dataset.Load(cfg.Input, cfg.Columns)
	if err != nil {
		return err
	}
	enriched := enrich.Apply(reg, table)
	drops := enrich.CountDrops(enriched)
	valid := enrich.FilterValid(enriched)

	fmt.Printf("Input:            %s\n", cfg.Input)
	fmt.Printf("Rows read:        %d\n", len(table))
	fmt.Printf("Rows usable:      %d\n", len(valid))
	fmt.Printf("Missing obs:      %d\n", drops.MissingObs)
	fmt.Printf("Unresolved names: %d\n", len(drops.Unresolved))

	if len(drops.Unresolved) > 0 {
		names := make([]string, 0, len(drops.Unresolved))
		for name := range drops.Unresolved {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println("\nCountry names not in the registry:")
		for _, name := range names {
			line := fmt.Sprintf("  %q (%d rows)", name, drops.Unresolved[name])
			if hints := reg.Suggest(name, 2); len(hints) > 0 {
				line += " - did you mean " + strings.Join(hints, ", ") + "?"
			}
			fmt.Println(line)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
