package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/artpar/templatecheck/internal/core/bundle"
	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/artpar/templatecheck/internal/shell/remote"
	"github.com/artpar/templatecheck/internal/shell/report"
	"github.com/artpar/templatecheck/internal/shell/runner"
	"github.com/artpar/templatecheck/internal/shell/store"
	"github.com/artpar/templatecheck/internal/shell/stub"
	"github.com/artpar/templatecheck/internal/shell/vcs"
)

// =============================================================================
// Root Command
// =============================================================================

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "templatecheck",
		Short: "Validate and test-deploy template bundles",
		Long: `templatecheck finds template bundles under a directory, checks their
files and metadata locally, then submits each one to a remote template
service for validation and a test deployment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text|json")

	load := func(c *cobra.Command, args []string) (*Config, error) {
		cfg, err := LoadConfig(configPath, c.Flags())
		if err != nil {
			return nil, &CommandError{Op: "load config", Err: err, ExitCode: ExitConfigError}
		}
		if len(args) > 0 {
			cfg.Run.Root = args[0]
		}
		return cfg, nil
	}

	cmd.AddCommand(
		newRunCmd(load),
		newListCmd(load),
		newHistoryCmd(load),
		newStubCmd(load),
		newVersionCmd(),
	)
	return cmd
}

type configLoader func(c *cobra.Command, args []string) (*Config, error)

// exitCode prints err and maps it to a process exit code.
func exitCode(err error, w io.Writer) int {
	fmt.Fprintf(w, "error: %v\n", err)

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	// Flag and argument errors from cobra.
	return ExitConfigError
}

// =============================================================================
// run
// =============================================================================

func newRunCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [root]",
		Short: "Validate and deploy every bundle under root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := load(c, args)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return &CommandError{Op: "validate config", Err: err, ExitCode: ExitConfigError}
			}
			return runBundles(c, cfg)
		},
	}

	f := cmd.Flags()
	f.String("validate-url", "", "Template validation endpoint (required)")
	f.String("deploy-url", "", "Template deployment endpoint (defaults to --validate-url)")
	f.Duration("timeout", 30*time.Second, "Timeout for one validation request")
	f.Duration("deploy-timeout", time.Hour, "Timeout for one deployment request")
	f.Duration("heartbeat-interval", 30*time.Second, "Interval between progress logs while a deployment runs")
	addPlanFlags(cmd)
	f.Bool("validate-only", false, "Stop after a successful validation")
	f.String("format", report.FormatText, "Report format: text|json|yaml")
	f.StringP("output", "o", "", "Write the report to this file instead of stdout")
	f.String("history-dsn", "", "SQLite database to record the run in")
	return cmd
}

func addPlanFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("group-size", bundle.DefaultGroupSize, "Number of bundles tested in parallel")
	f.Bool("only-changed", false, "Only test bundles with uncommitted or branch changes")
	f.String("base-ref", "", "Also count files changed since this git ref")
	f.String("repo-dir", "", "Git repository directory (defaults to root)")
}

func runBundles(c *cobra.Command, cfg *Config) error {
	logger := SetupLogger(cfg, c.ErrOrStderr())
	logger.Info("starting templatecheck", "version", Version, "root", cfg.Run.Root)

	client, err := remote.NewClient(cfg.Remote.ClientConfig(), logger)
	if err != nil {
		return &CommandError{Op: "create remote client", Err: err, ExitCode: ExitConfigError}
	}

	r, err := newRunner(cfg, client, logger)
	if err != nil {
		return err
	}

	rep, err := r.Run(c.Context())
	if err != nil {
		code := ExitRunAborted
		if errors.Is(err, domain.ErrConfig) {
			code = ExitConfigError
		}
		return &CommandError{Op: "run", Err: err, ExitCode: code}
	}

	if err := writeReport(c.OutOrStdout(), cfg.Report, rep); err != nil {
		return &CommandError{Op: "write report", Err: err, ExitCode: ExitRunAborted}
	}

	if cfg.History.DSN != "" {
		if err := recordRun(c, cfg.History.DSN, rep); err != nil {
			return &CommandError{Op: "record run", Err: err, ExitCode: ExitStoreError}
		}
		logger.Info("recorded run", "run_id", rep.ID, "dsn", cfg.History.DSN)
	}

	if failed := len(rep.Failures()); failed > 0 {
		return &CommandError{
			Op:       "run",
			Err:      fmt.Errorf("%d of %d bundle(s) failed", failed, len(rep.Results)),
			ExitCode: ExitBundleFailures,
		}
	}
	return nil
}

func newRunner(cfg *Config, client runner.Remote, logger *slog.Logger) (*runner.Runner, error) {
	var changes runner.ChangeSource
	if cfg.Run.OnlyChanged {
		changes = vcs.NewGit(cfg.Run.RepositoryDir(), cfg.Run.BaseRef)
	}
	r, err := runner.New(cfg.Run.Options(), client, changes, logger)
	if err != nil {
		return nil, &CommandError{Op: "create runner", Err: err, ExitCode: ExitConfigError}
	}
	return r, nil
}

// writeReport prints the report on w in the configured format, or in text
// on w and in the configured format to the output file.
func writeReport(w io.Writer, cfg ReportConfig, rep *domain.RunReport) error {
	if cfg.Output == "" {
		return report.Write(w, cfg.Format, rep)
	}

	if err := report.WriteText(w, rep); err != nil {
		return err
	}
	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := report.Write(f, cfg.Format, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func recordRun(c *cobra.Command, dsn string, rep *domain.RunReport) error {
	s, err := store.NewSQLiteStore(dsn)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.RecordRun(c.Context(), rep)
}

// =============================================================================
// list
// =============================================================================

func newListCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [root]",
		Short: "Show the bundles a run would test, in their groups",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := load(c, args)
			if err != nil {
				return err
			}
			if err := cfg.ValidateLocal(); err != nil {
				return &CommandError{Op: "validate config", Err: err, ExitCode: ExitConfigError}
			}

			r, err := newRunner(cfg, nil, SetupLogger(cfg, c.ErrOrStderr()))
			if err != nil {
				return err
			}
			groups, err := r.Plan(c.Context())
			if err != nil {
				return &CommandError{Op: "plan", Err: err, ExitCode: ExitRunAborted}
			}
			return writeGroups(c.OutOrStdout(), cfg.Run.Root, groups)
		},
	}
	addPlanFlags(cmd)
	return cmd
}

func writeGroups(w io.Writer, root string, groups []domain.TestGroup) error {
	title := lipgloss.NewRenderer(w).NewStyle().Bold(true)
	absRoot, _ := filepath.Abs(root)

	total := 0
	for i, group := range groups {
		if _, err := fmt.Fprintln(w, title.Render(fmt.Sprintf("Group %d", i+1))); err != nil {
			return err
		}
		for _, b := range group {
			name := b.Dir
			if rel, err := filepath.Rel(absRoot, b.Dir); err == nil {
				name = rel
			}
			fmt.Fprintf(w, "  %s\n", name)
			total++
		}
	}
	_, err := fmt.Fprintf(w, "%d bundle(s) in %d group(s)\n", total, len(groups))
	return err
}

// =============================================================================
// stub
// =============================================================================

func newStubCmd(load configLoader) *cobra.Command {
	var (
		addr         string
		deployDelay  time.Duration
		deployResult string
	)

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Serve a local fake of the template service",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := load(c, args)
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg, c.ErrOrStderr())

			srv := stub.New(stub.Config{
				Deploy:      stub.DeployResult(deployResult),
				DeployDelay: deployDelay,
			}, logger)
			if err := srv.ListenAndServe(c.Context(), addr); err != nil {
				return &CommandError{Op: "stub", Err: err, ExitCode: ExitRunAborted}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().DurationVar(&deployDelay, "deploy-delay", 0, "Simulated deployment time")
	cmd.Flags().StringVar(&deployResult, "deploy-result", remote.DeploySuccess, "Result reported by /deploy")
	return cmd
}

// =============================================================================
// version
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			fmt.Fprintf(c.OutOrStdout(), "templatecheck %s (built %s)\n", Version, BuildTime)
		},
	}
}
