package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/storepulse/config"
	"github.com/vinodismyname/storepulse/internal/cleaning"
	"github.com/vinodismyname/storepulse/internal/dataset"
	"github.com/vinodismyname/storepulse/internal/registry"
	"github.com/vinodismyname/storepulse/internal/report"
	"github.com/vinodismyname/storepulse/internal/runtime"
	"github.com/vinodismyname/storepulse/internal/security"
	"github.com/vinodismyname/storepulse/internal/store"
	"github.com/vinodismyname/storepulse/internal/telemetry"
	"github.com/vinodismyname/storepulse/pkg/validation"
	"github.com/vinodismyname/storepulse/pkg/version"
)

// options carries parsed command-line settings.
type options struct {
	File            string
	Export          string
	Stdio           bool
	AllowExport     bool
	Model           string
	ShutdownTimeout time.Duration
	Policy          config.Policy
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	opts := options{Policy: config.DefaultPolicy()}
	flag.StringVar(&opts.File, "file", "", "Orders file to analyze (.csv, .txt, .xlsx, .xlsm)")
	flag.StringVar(&opts.Export, "export", "", "Write the report workbook to this .xlsx path")
	flag.BoolVar(&opts.Stdio, "stdio", false, "Serve analysis tools over MCP stdio transport")
	flag.BoolVar(&opts.AllowExport, "allow-export", false, "Expose export_report to MCP clients")
	flag.StringVar(&opts.Model, "model", registry.DefaultModel, "Model whose tokenizer sizes tool text")
	flag.DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Float64Var(&opts.Policy.LowMarginPct, "low-margin", config.LowMarginPct, "Margin percent below which a recommendation is raised")
	flag.Float64Var(&opts.Policy.ConcentrationPct, "concentration", config.ConcentrationPct, "Top-product revenue share percent that is flagged")
	flag.IntVar(&opts.Policy.TrendWindowMonths, "trend-window", config.TrendWindowMonths, "Months in each growth comparison window")
	flag.IntVar(&opts.Policy.TopProducts, "top", config.TopProducts, "Products in rankings and concentration share")
	flag.IntVar(&opts.Policy.ForecastPeriods, "forecast", config.ForecastPeriods, "Months to forecast")
	flag.Parse()

	logger := zlog.With().Str("service", version.Name).Logger()
	ctx := logger.WithContext(context.Background())

	if err := run(ctx, opts, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("run failed")
		fmt.Fprintf(os.Stderr, "%s: %v\n", version.Name, err)
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("-file is required")

// run loads the dataset once, then prints the report, writes the workbook or serves MCP.
func run(ctx context.Context, opts options, stdout io.Writer) error {
	logger := zerolog.Ctx(ctx)
	if opts.File == "" {
		return errUsage
	}
	if err := validation.Validator().Struct(opts.Policy); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	allowed := []string{filepath.Dir(opts.File)}
	if opts.Export != "" {
		allowed = append(allowed, filepath.Dir(opts.Export))
	}
	sec, err := security.NewManager(allowed, nil)
	if err != nil {
		return fmt.Errorf("security: %w", err)
	}
	if err := sec.ValidateConfig(); err != nil {
		return err
	}
	logger.Info().Strs("allowed_dirs", sec.AllowedDirectories()).Msg("security allow-list configured")

	limits := runtime.NewLimits(0, 0)
	ctrl := runtime.NewController(limits)

	st := store.NewManager(0, 0, ctrl, nil)
	st.SetValidator(sec)
	st.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		if err := st.Close(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("store shutdown incomplete")
		}
	}()

	id, canonical, err := st.GetOrOpenByPath(ctx, opts.File)
	if err != nil {
		return loadError(opts.File, err)
	}
	logger.Info().Str("dataset_id", id).Str("path", canonical).Msg("dataset loaded")

	if opts.Stdio {
		return serve(ctx, opts, st, sec, limits, ctrl, canonical)
	}

	return st.WithRead(id, func(t *dataset.Table, health cleaning.Report, _ int64) error {
		doc := report.Build(t, health, opts.Policy)
		if _, err := io.WriteString(stdout, report.Markdown(doc)); err != nil {
			return err
		}
		for _, n := range doc.Notes {
			fmt.Fprintf(stdout, "\n> %s\n", n)
		}
		if opts.Export == "" {
			return nil
		}
		output, err := sec.ValidateWritePath(opts.Export)
		if err != nil {
			return fmt.Errorf("export %s: %w", opts.Export, err)
		}
		if err := report.WriteWorkbook(output, doc); err != nil {
			return err
		}
		logger.Info().Str("output", output).Msg("report exported")
		fmt.Fprintf(stdout, "\nWrote %s\n", output)
		return nil
	})
}

// loadError explains why the input file could not be analyzed.
func loadError(path string, err error) error {
	switch {
	case errors.Is(err, security.ErrNotFound):
		return fmt.Errorf("cannot load %s: file not found", path)
	case errors.Is(err, security.ErrUnsupportedExtension):
		return fmt.Errorf("cannot load %s: expected one of %v", path, security.DefaultExtensions)
	}
	return fmt.Errorf("cannot load %s: %w", path, err)
}

func serve(ctx context.Context, opts options, st *store.Manager, sec *security.Manager, limits runtime.Limits, ctrl *runtime.Controller, file string) error {
	logger := zerolog.Ctx(ctx)
	toolRegistry := registry.New()
	toolRegistry.WithModel(opts.Model)
	exportFilter := registry.NewExportToolFilter(opts.AllowExport)

	srv := server.NewMCPServer(
		"Superstore Sales Analysis Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.NewHooks(*logger)),
		server.WithToolHandlerMiddleware(runtime.NewCallGuard(ctrl).Wrap),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return exportFilter.FilterTools(ctx, tools) }),
	)

	contextSize := toolRegistry.ModelContextSize(opts.Model)
	h := &registry.Handlers{
		Store:       st,
		Limits:      limits,
		Policy:      opts.Policy,
		DefaultPath: file,
		Registry:    toolRegistry,
		TextTokens:  contextSize / 4,
	}
	if opts.AllowExport {
		h.Exports = sec
	}
	registry.RegisterTools(srv, toolRegistry, h)

	logger.Info().
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_open_datasets", limits.MaxOpenDatasets).
		Int("model_context_size", contextSize).
		Bool("allow_export", opts.AllowExport).
		Msg("server bootstrap configured")

	// Transport errors go to stderr so clients don't misinterpret stdout.
	return server.ServeStdio(srv)
}
