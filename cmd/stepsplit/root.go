package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	stepsplit "github.com/goliatone/go-stepsplit"
	"github.com/goliatone/go-stepsplit/pkg/orchestrator"
	"github.com/goliatone/go-stepsplit/pkg/report"
	"github.com/goliatone/go-stepsplit/pkg/step"
)

const defaultOutputDirName = "RESULT"

var rootCmd = &cobra.Command{
	Use:   "stepsplit <input.stp> [output-dir]",
	Short: "Split STEP assemblies and multi-volume parts into per-part files",
	Long: `Stepsplit reads an ISO 10303-21 (STEP) file, classifies it as an
assembly or a multi-volume part, and writes one self-contained STEP file
per part or solid body into the output directory, together with a
name;count report of the extracted units.`,
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSplit,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.IntP("parallel", "p", 1, "max units extracted concurrently")
	flags.Bool("merge-duplicates", false, "collapse geometrically identical parts into one file")
	flags.BoolP("force", "f", false, "write into a non-empty output directory without asking")
	flags.Bool("no-report", false, "skip the name;count report file")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringP("config", "c", "", "config file (default stepsplit.yaml in the working directory)")

	_ = viper.BindPFlag("parallel", flags.Lookup("parallel"))
	_ = viper.BindPFlag("merge_duplicates", flags.Lookup("merge-duplicates"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("config", flags.Lookup("config"))
}

func initConfig() {
	viper.SetEnvPrefix("STEPSPLIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func runSplit(cmd *cobra.Command, args []string) error {
	input := args[0]
	outputDir := defaultOutputDir(input)
	if len(args) > 1 {
		outputDir = args[1]
	}

	logger, err := buildLogger(viper.GetString("log_level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	options := []orchestrator.Option{orchestrator.WithLogger(logger)}

	if path := viper.GetString("config"); path != "" {
		cfg, err := orchestrator.LoadConfig(path)
		if err != nil {
			return err
		}
		options = append(options, cfg.Options()...)
		if cfg.ReportTemplate != "" {
			renderer, err := report.NewRenderer(report.WithTemplate(cfg.ReportTemplate))
			if err != nil {
				return err
			}
			options = append(options, orchestrator.WithReportRenderer(renderer))
		}
	}

	if n := viper.GetInt("parallel"); n > 1 {
		options = append(options, orchestrator.WithParallelism(n))
	}
	if viper.GetBool("merge_duplicates") {
		options = append(options, orchestrator.WithMergeDuplicates())
	}
	if noReport, _ := cmd.Flags().GetBool("no-report"); noReport {
		options = append(options, orchestrator.WithReportRenderer(nil))
	}

	force, _ := cmd.Flags().GetBool("force")
	if err := confirmOutputDir(outputDir, force); err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	lock := flock.New(filepath.Join(outputDir, ".stepsplit.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock output directory %s: %w", outputDir, err)
	}
	if !locked {
		return fmt.Errorf("output directory %s is in use by another stepsplit run", outputDir)
	}
	defer func() { _ = lock.Unlock() }()

	splitter := stepsplit.New(options...)
	result, err := splitter.Split(cmd.Context(), orchestrator.Request{
		Source:    step.SourceFromFile(input),
		OutputDir: outputDir,
	})

	printSummary(cmd, result, err)
	return err
}

// defaultOutputDir places the results in a RESULT directory next to the
// input file.
func defaultOutputDir(input string) string {
	return filepath.Join(filepath.Dir(input), defaultOutputDirName)
}

// confirmOutputDir asks before reusing a directory that already has files
// in it. Forced and scripted runs skip the prompt.
func confirmOutputDir(outputDir string, force bool) error {
	if force {
		return nil
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil || len(entries) == 0 {
		return nil
	}
	ok := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Output directory %s is not empty. Existing files may be overwritten. Continue?", outputDir),
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted: output directory %s not empty", outputDir)
	}
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
