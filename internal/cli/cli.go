package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"langprops/internal/archive"
	"langprops/internal/config"
	"langprops/internal/jobs"
	"langprops/internal/langsign"
	"langprops/internal/propset"
	"langprops/internal/textutil"
)

// globalFlags holds the persistent flags shared by all commands.
type globalFlags struct {
	ext             string
	exclude         []string
	workers         int
	caseInsensitive bool
	verbose         bool
	quiet           bool
}

func (f *globalFlags) loadOptions() jobs.Options {
	return jobs.Options{
		Extension:           f.ext,
		Exclude:             f.exclude,
		Workers:             f.workers,
		CaseInsensitiveKeys: f.caseInsensitive,
	}
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "langprops",
		Short: "Maintain sets of per-language properties files",
		Long: `Reads families of per-language .properties files sharing one base name,
merges them into ordered records and writes them back, optionally through
CSV or Excel tables for translators.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogLevel(cfg.LogLevel, flags.verbose)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ext, "ext", cfg.Extension, "Properties file extension")
	pf.StringSliceVar(&flags.exclude, "exclude", cfg.ExcludeParts, "Skip paths containing any of these parts")
	pf.IntVar(&flags.workers, "workers", cfg.WorkerCount, "Number of sets read in parallel")
	pf.BoolVar(&flags.caseInsensitive, "case-insensitive", cfg.CaseInsensitiveKeys, "Lower-case keys while reading")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "Hide progress bars")

	rootCmd.AddCommand(loadCmd(flags))
	rootCmd.AddCommand(exportCmd(flags))
	rootCmd.AddCommand(importCmd(flags))
	rootCmd.AddCommand(normalizeCmd(flags))
	rootCmd.AddCommand(missingCmd(flags))
	rootCmd.AddCommand(archiveCmd(cfg, flags))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel(level string, verbose bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func loadCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file-or-directory>",
		Short: "Load property sets and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			result, err := load(ctx, args[0], flags)
			if err != nil {
				return err
			}
			printSummary(cmd, result)
			return nil
		},
	}
}

func exportCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file-or-directory> <table.csv|table.xlsx>",
		Short: "Export property sets to a CSV or Excel table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			ctx, cancel := setupContext()
			defer cancel()

			result, err := load(ctx, args[0], flags)
			if err != nil {
				return err
			}

			progress, finish := newProgress(filepath.Base(args[1]), flags.quiet)
			err = jobs.Export(ctx, result.Records, args[1], overwrite, progress)
			finish()
			if err != nil {
				return fmt.Errorf("export %s: %w", args[1], err)
			}

			log.Info().
				Int("records", len(result.Records)).
				Strs("sets", result.SetNames).
				Str("file", args[1]).
				Msg("Export complete")
			return nil
		},
	}

	cmd.Flags().Bool("overwrite", false, "Replace an existing table file")
	return cmd
}

func importCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <table.csv|table.xlsx>",
		Short: "Import a CSV or Excel table and store it as property sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := writeOptions(cmd, flags)

			ctx, cancel := setupContext()
			defer cancel()

			progress, finish := newProgress(filepath.Base(args[0]), flags.quiet)
			result, err := jobs.Import(ctx, args[0], progress)
			finish()
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			return store(ctx, result.Records, opts, flags)
		},
	}

	addWriteFlags(cmd)
	return cmd
}

func normalizeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file-or-directory>",
		Short: "Rewrite property sets in canonical order and format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			result, err := load(ctx, args[0], flags)
			if err != nil {
				return err
			}
			return store(ctx, result.Records, jobs.WriteOptions{
				Extension: flags.ext,
				Exclude:   flags.exclude,
			}, flags)
		},
	}
}

func missingCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missing <file-or-directory>",
		Short: "List keys without a value for a language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sign, _ := cmd.Flags().GetString("sign")
			descending, _ := cmd.Flags().GetBool("descending")
			all, _ := cmd.Flags().GetBool("all")
			if textutil.IsBlank(sign) {
				return fmt.Errorf("--sign must not be empty")
			}

			ctx, cancel := setupContext()
			defer cancel()

			result, err := load(ctx, args[0], flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range jobs.Missing(result.Records, sign, !descending) {
				_, has := r.Value(sign)
				if has && !all {
					continue
				}
				marker := "-"
				if has {
					marker = "+"
				}
				fallback, _ := r.Value(langsign.Default)
				fmt.Fprintf(out, "%s %s\t%s\t%s\n", marker, filepath.Base(r.Path), r.Key,
					textutil.Truncate(textutil.FirstLine(fallback), 60))
			}

			log.Info().
				Str("sign", sign).
				Int("missing", jobs.CountMissing(result.Records, sign)).
				Int("records", len(result.Records)).
				Msg("Review complete")
			return nil
		},
	}

	cmd.Flags().StringP("sign", "s", langsign.Default, "Language sign to review")
	cmd.Flags().Bool("descending", false, "Reverse the review order")
	cmd.Flags().Bool("all", false, "Also list keys that have a value")
	return cmd
}

func archiveCmd(cfg *config.Config, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Store and restore property set snapshots in PostgreSQL",
	}

	push := &cobra.Command{
		Use:   "push <file-or-directory>",
		Short: "Save property sets to the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			result, err := load(ctx, args[0], flags)
			if err != nil {
				return err
			}

			pool, err := initDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			st := archive.NewStore(pool)
			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}
			saved, err := st.Save(ctx, result.Records)
			if err != nil {
				return fmt.Errorf("archive records: %w", err)
			}

			log.Info().Int("records", saved).Strs("sets", result.SetNames).Msg("Archive push complete")
			return nil
		},
	}

	pull := &cobra.Command{
		Use:   "pull [path-prefix]",
		Short: "Restore archived property sets to disk",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := writeOptions(cmd, flags)
			var prefix string
			if len(args) == 1 {
				prefix = canonicalPrefix(args[0])
			}

			ctx, cancel := setupContext()
			defer cancel()

			pool, err := initDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			st := archive.NewStore(pool)
			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}
			records, err := st.Load(ctx, prefix)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				log.Warn().Str("prefix", prefix).Msg("No archived records found")
				return nil
			}

			return store(ctx, records, opts, flags)
		},
	}
	addWriteFlags(pull)

	cmd.AddCommand(push, pull)
	return cmd
}

func addWriteFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output-dir", "o", "", "Store sets below this directory instead of their own paths")
	cmd.Flags().StringP("name", "n", "", "Set name for records without a path")
	cmd.Flags().Bool("extend", false, "Keep keys already on disk that are not part of the input")
}

func writeOptions(cmd *cobra.Command, flags *globalFlags) jobs.WriteOptions {
	outDir, _ := cmd.Flags().GetString("output-dir")
	name, _ := cmd.Flags().GetString("name")
	extend, _ := cmd.Flags().GetBool("extend")
	return jobs.WriteOptions{
		Extension:             flags.ext,
		Exclude:               flags.exclude,
		OutputDir:             outDir,
		BaseName:              name,
		ExtendAndKeepExisting: extend,
	}
}

// load reads property sets from target with a progress bar.
func load(ctx context.Context, target string, flags *globalFlags) (*jobs.Result, error) {
	opts := flags.loadOptions()
	progress, finish := newProgress("reading", flags.quiet)
	opts.Progress = progress
	result, err := jobs.Load(ctx, target, opts)
	finish()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", target, err)
	}
	return result, nil
}

// store writes records as property sets with a progress bar.
func store(ctx context.Context, records []*propset.Record, opts jobs.WriteOptions, flags *globalFlags) error {
	progress, finish := newProgress("writing", flags.quiet)
	opts.Progress = progress
	stored, err := jobs.Write(ctx, records, opts)
	finish()
	for _, path := range stored {
		log.Debug().Str("set", path).Msg("Stored set")
	}
	if err != nil {
		return fmt.Errorf("store property sets: %w", err)
	}

	log.Info().Int("sets", len(stored)).Int("records", len(records)).Msg("Write complete")
	return nil
}

func printSummary(cmd *cobra.Command, result *jobs.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sets:     %s\n", strings.Join(result.SetNames, ", "))
	fmt.Fprintf(out, "Records:  %d\n", len(result.Records))
	fmt.Fprintf(out, "Comments: %t\n", result.CommentsFound)
	fmt.Fprintln(out, "Languages:")
	for _, sign := range result.Signs {
		fmt.Fprintf(out, "  %-10s missing %d\n", sign, jobs.CountMissing(result.Records, sign))
	}
}

// canonicalPrefix turns a user supplied path into the form stored on records.
func canonicalPrefix(p string) string {
	abs, err := filepath.Abs(propset.ExpandHome(p))
	if err != nil {
		return p
	}
	return propset.CompactHome(abs)
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// initDatabase connects to PostgreSQL.
func initDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")

	return pool, nil
}
