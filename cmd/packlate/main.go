// Command packlate fills the missing target languages of a localization pack
// using an AI backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ZaguanLabs/packlate"
	"github.com/ZaguanLabs/packlate/cache"
	"github.com/ZaguanLabs/packlate/config"
	"github.com/ZaguanLabs/packlate/packfile"
	"github.com/ZaguanLabs/packlate/provider"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = packlate.FullVersion()
	commit    = packlate.GitCommit
	buildDate = packlate.BuildDate
)

// newBackend builds the configured backend. Tests replace it with a mock.
var newBackend = func(cfg *config.Config) (packlate.Backend, error) {
	switch cfg.Backend {
	case config.BackendOpenAI:
		return provider.NewOpenAIBackend(provider.OpenAIConfig{
			APIKey:    cfg.APIKey(),
			Model:     cfg.OpenAIModel,
			BaseURL:   cfg.OpenAIBaseURL,
			MaxTokens: cfg.OpenAIMaxTokens,
			Context:   cfg.Context,
		}), nil
	case config.BackendOra:
		return provider.NewOraBackend(provider.OraConfig{
			BaseURL: cfg.OraBaseURL,
			Context: cfg.Context,
		}), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

type options struct {
	envFile     string
	backend     string
	context     string
	redisURL    string
	memory      string
	indent      int
	concurrency int
	charLimit   int
	inPlace     bool
	dryRun      bool
	jsonOutput  bool
	checkMarkup bool
	quiet       bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "packlate <pack.json>",
		Short: packlate.Description,
		Long: `packlate translates the enGB text of every entry in a localization pack
into ruRU, deDE, frFR, zhCN and esES. Populated fields are never overwritten,
so re-running on the output only fills what is still missing.

The translated pack is written next to the input as <name>Translated.json
unless --in-place is given.

Configuration is read from the environment and an optional .env file:
  PACKLATE_BACKEND     openai (default) or ora
  OPENAI_API_KEY       required for the openai backend
  REDIS_URL            shared translation memory
  PACKLATE_RPM         requests per minute (0 disables pacing)`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("pack file is required")
			}
			return translate(cmd, args[0], &opts)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("%s %s\n  commit: %s\n  built:  %s\n", packlate.Name, version, commit, buildDate))

	f := cmd.Flags()
	f.StringVar(&opts.envFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	f.StringVar(&opts.backend, "backend", "", "Backend to use: openai or ora (default: PACKLATE_BACKEND)")
	f.StringVar(&opts.context, "context", "", "What the strings are for, e.g. 'fantasy strategy game'")
	f.StringVar(&opts.redisURL, "redis-url", "", "Redis URL for the translation memory (default: REDIS_URL)")
	f.StringVar(&opts.memory, "memory", "", "Translation memory file, imported before and exported after the run")
	f.IntVar(&opts.indent, "indent", packfile.DefaultIndent, "Indent width of the output file (0 for compact)")
	f.IntVar(&opts.concurrency, "concurrency", 0, "Entries translated at once (default: PACKLATE_CONCURRENCY)")
	f.IntVar(&opts.charLimit, "char-limit", 0, "Override the backend's source length limit")
	f.BoolVar(&opts.inPlace, "in-place", false, "Overwrite the input file")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Show what would be translated without calling the backend")
	f.BoolVar(&opts.jsonOutput, "json", false, "Print the run summary as JSON")
	f.BoolVar(&opts.checkMarkup, "check-markup", false, "Drop translations whose markup tags differ from the source")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func translate(cmd *cobra.Command, path string, opts *options) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, opts)

	if !opts.dryRun {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	level, err := cfg.Level()
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if opts.verbose {
		level = zapcore.DebugLevel
	}
	logger := newLogger(stderr, level)
	defer func() { _ = logger.Sync() }()

	pack, err := packfile.Load(path)
	if err != nil {
		return err
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	backend = wrapBackend(backend, cfg)

	tm, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	if opts.memory != "" {
		if err := importMemory(tm, opts.memory, logger); err != nil {
			return err
		}
	}

	topts := []packlate.TranslatorOption{
		packlate.WithCache(tm),
		packlate.WithLogger(logger),
		packlate.WithContext(cfg.Context),
		packlate.WithCharLimit(cfg.CharLimit),
		packlate.WithMaxContinuations(cfg.MaxContinuations),
		packlate.WithConcurrency(cfg.Concurrency),
		packlate.WithMarkupCheck(opts.checkMarkup),
	}

	if opts.dryRun {
		t := packlate.NewTranslator(backend, topts...)
		return runDryRun(stdout, path, t.Plan(pack), backend.Name(), opts.jsonOutput)
	}

	var bar *progressbar.ProgressBar
	if !opts.quiet && pack.Len() > 0 {
		bar = newProgressBar(stderr, pack.Len(), path)
		topts = append(topts, packlate.WithProgress(func(done, _ int) {
			_ = bar.Set(done)
		}))
	}

	t := packlate.NewTranslator(backend, topts...)

	start := time.Now()
	out, stats := t.TranslatePack(ctx, pack)
	elapsed := time.Since(start)
	if bar != nil {
		_ = bar.Finish()
	}

	outPath := packfile.OutputPath(path, opts.inPlace)
	if err := packfile.Save(outPath, out, opts.indent); err != nil {
		return err
	}

	if opts.memory != "" {
		exported, err := cache.NewExporter(tm).ExportToFile(opts.memory, map[string]string{
			"backend": backend.Name(),
			"context": cfg.Context,
		})
		if err != nil {
			return fmt.Errorf("exporting translation memory: %w", err)
		}
		logger.Debug("translation memory exported", zap.String("path", opts.memory), zap.Int("entries", exported))
	}

	if opts.jsonOutput {
		if err := outputJSON(stdout, outPath, backend.Name(), stats, t.Gate().Tripped(), elapsed); err != nil {
			return err
		}
	} else if !opts.quiet {
		printSummary(stderr, outPath, stats, t.Gate().Tripped(), elapsed)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted; partial result written to %s: %w", outPath, err)
	}
	return nil
}

// applyFlags lets explicitly set flags override the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *options) {
	f := cmd.Flags()
	if f.Changed("backend") {
		cfg.Backend = opts.backend
	}
	if f.Changed("context") {
		cfg.Context = opts.context
	}
	if f.Changed("redis-url") {
		cfg.RedisURL = opts.redisURL
	}
	if f.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if f.Changed("char-limit") {
		cfg.CharLimit = opts.charLimit
	}
}

// wrapBackend adds session retries and, when configured, request pacing.
func wrapBackend(backend packlate.Backend, cfg *config.Config) packlate.Backend {
	retry := packlate.DefaultRetryConfig()
	retry.MaxRetries = cfg.OpenRetries
	backend = packlate.NewRetryableBackend(backend, retry)

	if cfg.RequestsPerMinute > 0 {
		backend = packlate.NewRateLimitedBackend(backend, packlate.RateLimitConfig{
			RequestsPerMinute: cfg.RequestsPerMinute,
		})
	}
	return backend
}

func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.ExportableCache, func(), error) {
	ttl := int(cfg.CacheTTL / time.Second)

	if cfg.RedisURL == "" {
		return cache.NewInMemoryCache(ttl), func() {}, nil
	}

	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		URL:    cfg.RedisURL,
		TTL:    ttl,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			logger.Warn("failed to close redis connection", zap.Error(err))
		}
	}, nil
}

func importMemory(tm cache.TranslationCache, path string, logger *zap.Logger) error {
	res, err := cache.NewImporter(tm).ImportFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no translation memory file yet", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("importing translation memory: %w", err)
	}
	logger.Debug("translation memory imported",
		zap.String("path", path),
		zap.Int("imported", res.Imported),
		zap.Int("failed", res.Failed))
	return nil
}

func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func newProgressBar(w io.Writer, total int, path string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Translating "+path),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// runDryRun shows what would be translated without calling the backend.
func runDryRun(stdout io.Writer, path string, plan packlate.PlanResult, backend string, jsonOut bool) error {
	if jsonOut {
		type pendingEntry struct {
			Key        string `json:"key"`
			SimpleName string `json:"simple_name"`
			Source     string `json:"source"`
		}
		type dryRunOutput struct {
			InputFile string         `json:"input_file"`
			Backend   string         `json:"backend"`
			Stats     packlate.Stats `json:"stats"`
			Pending   []pendingEntry `json:"pending"`
		}

		out := dryRunOutput{
			InputFile: path,
			Backend:   backend,
			Stats:     plan.Stats,
			Pending:   make([]pendingEntry, len(plan.Pending)),
		}
		for i, e := range plan.Pending {
			out.Pending[i] = pendingEntry{Key: e.Key, SimpleName: e.SimpleName, Source: e.Source()}
		}

		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "Dry run: %s -> %s\n", path, backend)
	fmt.Fprintf(stdout, "%d entries would be sent to the backend:\n\n", len(plan.Pending))

	for i, e := range plan.Pending {
		text := []rune(e.Source())
		if len(text) > 60 {
			text = append(text[:57], []rune("...")...)
		}
		fmt.Fprintf(stdout, "%3d. %s %q\n", i+1, e.Key, string(text))
	}

	s := plan.Stats
	fmt.Fprintf(stdout, "\nFrom cache:          %d\n", s.Cached)
	fmt.Fprintf(stdout, "Already translated:  %d\n", s.AlreadyTranslated)
	fmt.Fprintf(stdout, "Too long:            %d\n", s.TooLong)
	fmt.Fprintf(stdout, "No source:           %d\n", s.NoSource)
	return nil
}

// JSONOutput is the structure for --json output.
type JSONOutput struct {
	OutputFile  string         `json:"output_file"`
	Backend     string         `json:"backend"`
	Stats       packlate.Stats `json:"stats"`
	RateLimited bool           `json:"rate_limited"`
	ElapsedMs   int64          `json:"elapsed_ms"`
}

// outputJSON writes the run summary as JSON.
func outputJSON(w io.Writer, outPath, backend string, stats packlate.Stats, limited bool, elapsed time.Duration) error {
	out := JSONOutput{
		OutputFile:  outPath,
		Backend:     backend,
		Stats:       stats,
		RateLimited: limited,
		ElapsedMs:   elapsed.Milliseconds(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printSummary(w io.Writer, outPath string, s packlate.Stats, limited bool, elapsed time.Duration) {
	fmt.Fprintf(w, "Done in %v, wrote %s\n", elapsed.Round(time.Millisecond), outPath)
	fmt.Fprintf(w, "  Entries:             %d\n", s.Total)
	fmt.Fprintf(w, "  Translated:          %d\n", s.Translated)
	fmt.Fprintf(w, "  From cache:          %d\n", s.Cached)
	fmt.Fprintf(w, "  Failed:              %d\n", s.Failed)
	fmt.Fprintf(w, "  Already translated:  %d\n", s.AlreadyTranslated)
	fmt.Fprintf(w, "  Too long:            %d\n", s.TooLong)
	fmt.Fprintf(w, "  No source:           %d\n", s.NoSource)
	fmt.Fprintf(w, "  Rate limited:        %d\n", s.RateLimited)
	if limited {
		fmt.Fprintln(w, "Backend rate limit reached; run again later to fill the remaining entries.")
	}
}
