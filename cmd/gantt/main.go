package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/evanschultz/gantt/internal/adapters/secrets"
	"github.com/evanschultz/gantt/internal/adapters/server"
	"github.com/evanschultz/gantt/internal/adapters/server/common"
	"github.com/evanschultz/gantt/internal/adapters/storage/postgres"
	"github.com/evanschultz/gantt/internal/adapters/storage/sqlite"
	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/config"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/platform"
	"github.com/evanschultz/gantt/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests swap it for a scripted one.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveRunner starts serve mode; tests swap it to inspect the wiring.
var serveRunner = server.Run

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCommand(os.Stdin, os.Stdout, os.Stderr)
	err := fang.Execute(ctx, root, fang.WithVersion(version))
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run executes the command tree with explicit args and streams.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := newRootCommand(stdin, stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// runtimeState is the resolved configuration for one command run.
type runtimeState struct {
	opts       rootOptions
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := rootOptions{appName: platform.DefaultAppName, devMode: version == "dev"}
	if envApp := strings.TrimSpace(os.Getenv("GANTT_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	if envDev, ok := parseBoolEnv("GANTT_DEV_MODE"); ok {
		opts.devMode = envDev
	}

	root := &cobra.Command{
		Use:           "gantt",
		Short:         "Terminal Gantt chart over a task table",
		Long:          "gantt renders a year of tasks as a zoomable, pannable Gantt chart and serves the same task table over HTTP and MCP.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(&opts, stdout),
		newServeCommand(&opts, stdout, stderr),
		newSeedCommand(&opts, stdout, stderr),
		newListCommand(&opts, stdout, stderr),
		newCredentialsCommand(&opts, stdin, stdout),
	)
	return root
}

func newPathsCommand(opts *rootOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and log locations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := resolvePaths(*opts)
			if err != nil {
				return err
			}
			configPath, dbPath, _ := resolveFileOverrides(*opts, paths)
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

func newServeCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var httpBind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task table over HTTP (REST + MCP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			state, err := loadRuntime(*opts, stderr)
			if err != nil {
				return err
			}
			defer state.closeLogger(stderr)
			logger := state.logger

			svc, closeStore, err := openService(ctx, state)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := seedOnStartup(ctx, state, svc); err != nil {
				return err
			}

			cfg := server.Config{
				HTTPBind:      firstNonEmpty(httpBind, state.cfg.Server.HTTPBind),
				APIEndpoint:   firstNonEmpty(apiEndpoint, state.cfg.Server.APIEndpoint),
				MCPEndpoint:   firstNonEmpty(mcpEndpoint, state.cfg.Server.MCPEndpoint),
				ServerName:    opts.appName,
				ServerVersion: version,
			}
			adapter := common.NewAppServiceAdapter(svc, common.AdapterOptions{
				DefaultZoom:     state.cfg.Chart.DefaultZoom,
				Year:            state.cfg.Chart.Year,
				DayAlignedStart: state.cfg.Chart.DayAlignedStart,
			})
			logger.Info("command flow start", "command", "serve")
			err = serveRunner(ctx, cfg, server.Dependencies{Tasks: adapter}, func(resolved server.Config) {
				logger.Info("serving", "http_bind", resolved.HTTPBind, "api_endpoint", resolved.APIEndpoint, "mcp_endpoint", resolved.MCPEndpoint)
				_, _ = fmt.Fprintf(stdout, "serving http://%s (api %s, mcp %s)\n", resolved.HTTPBind, resolved.APIEndpoint, resolved.MCPEndpoint)
			})
			if err != nil {
				logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "listen address (defaults to server.http_bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "REST API base path")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path")
	return cmd
}

func newSeedCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty task table with sample tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			state, err := loadRuntime(*opts, stderr)
			if err != nil {
				return err
			}
			defer state.closeLogger(stderr)

			svc, closeStore, err := openService(ctx, state)
			if err != nil {
				return err
			}
			defer closeStore()

			created, err := svc.SeedIfEmpty(ctx)
			if err != nil {
				state.logger.Error("seed failed", "err", err)
				return fmt.Errorf("seed tasks: %w", err)
			}
			if created == 0 {
				_, _ = fmt.Fprintln(stdout, "task table already has tasks; nothing seeded")
				return nil
			}
			_, _ = fmt.Fprintf(stdout, "seeded %d tasks\n", created)
			return nil
		},
	}
}

func newListCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print tasks ordered by start date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			state, err := loadRuntime(*opts, stderr)
			if err != nil {
				return err
			}
			defer state.closeLogger(stderr)

			svc, closeStore, err := openService(ctx, state)
			if err != nil {
				return err
			}
			defer closeStore()

			tasks, err := svc.SearchTasks(ctx, query)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			if len(tasks) == 0 {
				_, _ = fmt.Fprintln(stdout, "no tasks")
				return nil
			}
			_, _ = fmt.Fprintln(stdout, renderTaskTable(tasks))
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only tasks whose name, details, owner or status match")
	return cmd
}

func newCredentialsCommand(opts *rootOptions, stdin io.Reader, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the PostgreSQL password kept in the OS keyring",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "Read a password from stdin and store it in the keyring",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				password, err := readSecretLine(stdin)
				if err != nil {
					return err
				}
				kr := keyringFor(*opts)
				if err := kr.SetPostgresPassword(password); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(stdout, "stored postgres password for %s\n", kr.Service())
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored password",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				kr := keyringFor(*opts)
				if err := kr.ClearPostgresPassword(); err != nil {
					if errors.Is(err, secrets.ErrNotFound) {
						_, _ = fmt.Fprintln(stdout, "no stored password")
						return nil
					}
					return err
				}
				_, _ = fmt.Fprintf(stdout, "cleared postgres password for %s\n", kr.Service())
				return nil
			},
		},
	)
	return cmd
}

// runTUI opens the store and runs the chart program until quit.
func runTUI(ctx context.Context, opts rootOptions, stderr io.Writer) error {
	state, err := loadRuntime(opts, stderr)
	if err != nil {
		return err
	}
	defer state.closeLogger(stderr)
	logger := state.logger

	svc, closeStore, err := openService(ctx, state)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := seedOnStartup(ctx, state, svc); err != nil {
		return err
	}

	chart := state.cfg.Chart
	m := tui.NewModel(
		svc,
		tui.WithTitle(chart.Title),
		tui.WithDefaultZoom(chart.DefaultZoom),
		tui.WithYear(chart.Year),
		tui.WithDayAlignedStart(chart.DayAlignedStart),
		tui.WithShowToday(chart.ShowToday),
		tui.WithShowMinimap(chart.ShowMinimap),
		tui.WithKeyConfig(toTUIKeyConfig(state.cfg.Keys)),
		tui.WithClock(svc.Now),
	)

	// Console output would corrupt the alt screen; the file sink keeps recording.
	logger.muteConsole()
	logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// loadRuntime resolves paths, loads config and builds the runtime logger.
func loadRuntime(opts rootOptions, stderr io.Writer) (*runtimeState, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}
	configPath, dbPath, dbOverridden := resolveFileOverrides(opts, paths)

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = dbPath
	}

	logDir, err := resolveLogDir(cfg.Logging.File.Dir, paths.LogDir, paths.DataDir, opts.devMode)
	if err != nil {
		return nil, fmt.Errorf("resolve log dir: %w", err)
	}
	logger, err := newRuntimeLogger(stderr, opts.appName, cfg.Logging, logDir)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}

	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", dbPath)
	logger.Info("configuration loaded", "config_path", configPath, "driver", cfg.Database.Driver, "log_level", cfg.Logging.Level)
	if logPath := logger.LogPath(); logPath != "" {
		logger.Debug("file logging enabled", "path", logPath)
	}
	return &runtimeState{
		opts:       opts,
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

func (s *runtimeState) closeLogger(stderr io.Writer) {
	if err := s.logger.Close(); err != nil {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// taskStore is a repository that owns a connection.
type taskStore interface {
	app.Repository
	Close() error
}

// openService opens the configured store and wraps it in the application service.
func openService(ctx context.Context, state *runtimeState) (*app.Service, func(), error) {
	logger := state.logger
	store, err := openStore(ctx, state)
	if err != nil {
		logger.Error("open task store failed", "driver", state.cfg.Database.Driver, "err", err)
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("task store close failed", "err", err)
		}
	}
	svc := app.NewService(store, uuid.NewString, nil, app.ServiceConfig{
		SeedFixture: state.cfg.Seed.Fixture,
	})
	return svc, closeStore, nil
}

func openStore(ctx context.Context, state *runtimeState) (taskStore, error) {
	logger := state.logger
	db := state.cfg.Database
	switch db.Driver {
	case config.DriverPostgres:
		if err := postgres.ValidateDSN(db.PostgresDSN); err != nil {
			return nil, fmt.Errorf("postgres dsn: %w", err)
		}
		password, err := keyringFor(state.opts).OptionalPostgresPassword()
		if err != nil {
			logger.Warn("keyring unavailable; connecting without a stored password", "err", err)
			password = ""
		}
		logger.Info("opening postgres repository")
		repo, err := postgres.Open(ctx, db.PostgresDSN, password)
		if err != nil {
			return nil, fmt.Errorf("open postgres repository: %w", err)
		}
		logger.Info("postgres repository ready", "migrations", "ensured")
		return repo, nil
	default:
		logger.Info("opening sqlite repository", "db_path", db.Path)
		repo, err := sqlite.Open(db.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		logger.Info("sqlite repository ready", "db_path", db.Path, "migrations", "ensured")
		return repo, nil
	}
}

// seedOnStartup fills an empty table when seed.on_startup is set.
func seedOnStartup(ctx context.Context, state *runtimeState, svc *app.Service) error {
	if !state.cfg.Seed.OnStartup {
		return nil
	}
	created, err := svc.SeedIfEmpty(ctx)
	if err != nil {
		state.logger.Error("startup seed failed", "err", err)
		return fmt.Errorf("seed tasks: %w", err)
	}
	if created > 0 {
		state.logger.Info("seeded sample tasks", "count", created)
	}
	return nil
}

func resolvePaths(opts rootOptions) (platform.Paths, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return platform.Paths{}, fmt.Errorf("resolve paths: %w", err)
	}
	return paths, nil
}

// resolveFileOverrides applies flag, then env, then platform defaults.
func resolveFileOverrides(opts rootOptions, paths platform.Paths) (configPath, dbPath string, dbOverridden bool) {
	configPath = strings.TrimSpace(opts.configPath)
	if configPath == "" {
		configPath = firstNonEmpty(os.Getenv("GANTT_CONFIG"), paths.ConfigPath)
	}
	dbPath = strings.TrimSpace(opts.dbPath)
	if dbPath == "" {
		dbPath = strings.TrimSpace(os.Getenv("GANTT_DB_PATH"))
	}
	if dbPath != "" {
		return configPath, dbPath, true
	}
	return configPath, paths.DBPath, false
}

func keyringFor(opts rootOptions) secrets.Keyring {
	return secrets.NewKeyring(platform.AppDirName(platform.Options{AppName: opts.appName, DevMode: opts.devMode}))
}

// readSecretLine reads the first line of input.
func readSecretLine(input io.Reader) (string, error) {
	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required on stdin")
	}
	return line, nil
}

// renderTaskTable renders tasks as a bordered table.
func renderTaskTable(tasks []domain.Task) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("Start", "End", "Days", "Status", "Done", "Task", "Responsible").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col == 3 && row < len(tasks) {
				return style.Foreground(lipgloss.Color(tasks[row].Status.Descriptor().ColorToken))
			}
			return style
		})
	for _, task := range tasks {
		done := ""
		if task.Completed {
			done = "✓"
		}
		t.Row(
			task.StartDate.Format(time.DateOnly),
			task.EndDate.Format(time.DateOnly),
			strconv.Itoa(task.DurationDays()),
			task.Status.Label(),
			done,
			task.Name,
			task.Responsible,
		)
	}
	return t.String()
}

func toTUIKeyConfig(keys config.KeyConfig) tui.KeyConfig {
	return tui.KeyConfig{
		Search:          keys.Search,
		AddTask:         keys.AddTask,
		EditTask:        keys.EditTask,
		ToggleCompleted: keys.ToggleCompleted,
		DeleteTask:      keys.DeleteTask,
		CopyTask:        keys.CopyTask,
		EditTitle:       keys.EditTitle,
	}
}

func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
