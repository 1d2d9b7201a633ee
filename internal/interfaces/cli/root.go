package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/bootstrap"
	"github.com/turtacn/additive-lens/internal/config"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
	DataDir      string
}

// InfraFactory opens the backends a command needs. Tests swap it out.
type InfraFactory func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*bootstrap.Infrastructure, error)

// CLIContext carries initialized dependencies through the command tree.
// Backends are opened on first use so commands such as encode never touch
// them.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration

	factory InfraFactory

	mu    sync.Mutex
	infra *bootstrap.Infrastructure
	svc   lookup.Service
}

// Infrastructure opens the configured backends once.
func (c *CLIContext) Infrastructure(ctx context.Context) (*bootstrap.Infrastructure, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.infra != nil {
		return c.infra, nil
	}
	infra, err := c.factory(ctx, c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	c.infra = infra
	return infra, nil
}

// Service returns the lookup service with its assets loaded.
func (c *CLIContext) Service(ctx context.Context) (lookup.Service, error) {
	infra, err := c.Infrastructure(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil {
		return c.svc, nil
	}
	svc := infra.NewLookupService()
	if err := svc.Init(ctx); err != nil {
		return nil, err
	}
	c.svc = svc
	return svc, nil
}

// Close releases whatever Infrastructure opened.
func (c *CLIContext) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.infra != nil {
		c.infra.Close()
		c.infra = nil
	}
	c.svc = nil
}

// NewRootCommand creates the root command with every subcommand. A nil
// factory uses bootstrap.Open.
func NewRootCommand(factory InfraFactory) *cobra.Command {
	if factory == nil {
		factory = bootstrap.Open
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "additivelens",
		Short: "Identify food additives on ingredient labels",
		Long: "additivelens resolves free-text additive names against the FDA substance catalog\n" +
			"and attaches the Code of Federal Regulations sections that govern them.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, factory)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./additivelens.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "global operation timeout")
	pf.StringVar(&opts.DataDir, "data-dir", "", "directory holding catalog.json and regulations.csv (overrides assets.dir)")

	cmd.AddCommand(
		NewResolveCmd(),
		NewSearchCmd(),
		NewCodesCmd(),
		NewScanCmd(),
		NewEncodeCmd(),
		NewAssetsCmd(),
	)
	return cmd
}

// persistentPreRun loads config and logger, then stores the CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions, factory InfraFactory) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "table":
	default:
		return errors.Newf(errors.CodeInvalidParam, "unsupported output format %q (expected text, json or table)", opts.OutputFormat)
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return errors.Wrap(err, errors.CodeValidation, "config initialization failed")
	}

	logger, err := initLogger(opts)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}

	if opts.NoColor {
		color.NoColor = true
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Verbose:      opts.Verbose,
		NoColor:      opts.NoColor,
		Timeout:      opts.Timeout,
		factory:      factory,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// configSearchPaths lists the files tried when --config is not given.
func configSearchPaths() []string {
	paths := []string{"./additivelens.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".additivelens", "config.yaml"))
	}
	return append(paths, "/etc/additivelens/config.yaml")
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		for _, p := range configSearchPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.DataDir != "" {
		cfg.Assets.Source = "file"
		cfg.Assets.Dir = opts.DataDir
	}
	// A one-shot command has nobody scraping it.
	cfg.Metrics.Enabled = false
	return cfg, nil
}

// initLogger creates a logger configured for CLI usage (output to stderr).
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := strings.ToLower(opts.LogLevel)
	if opts.Verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.CodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.CodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext bounds a command by the global --timeout.
func commandContext(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	if cliCtx.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), cliCtx.Timeout)
}

// withService runs fn with the loaded lookup service and releases the
// backends afterwards.
func withService(cmd *cobra.Command, fn func(ctx context.Context, cliCtx *CLIContext, svc lookup.Service) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	defer cliCtx.Close()

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	svc, err := cliCtx.Service(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, cliCtx, svc)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand(nil)
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// ─── Output ──────────────────────────────────────────────────────────────────

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// textProvider is implemented by results with a human-oriented rendering.
type textProvider interface {
	WriteText(cmd *cobra.Command)
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return printJSON(cmd, data)
	}

	switch cliCtx.OutputFormat {
	case "json":
		return printJSON(cmd, data)
	case "table":
		return printTable(cmd, data)
	default:
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case textProvider:
		v.WriteText(cmd)
	case tableProvider:
		return printTable(cmd, data)
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

func printTable(cmd *cobra.Command, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printText(cmd, data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("OK:"), msg)
}

// FormatTable renders headers and rows with tablewriter.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	for _, row := range rows {
		padded := make([]string, len(headers))
		copy(padded, row)
		table.Append(padded)
	}
	table.Render()
	return sb.String()
}

// truncateString shortens s to maxLen runes, ending in "...".
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
