package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cexll/rivalsbot/internal/bot"
	"github.com/cexll/rivalsbot/internal/command"
	"github.com/cexll/rivalsbot/internal/config"
	"github.com/cexll/rivalsbot/internal/counters"
	"github.com/cexll/rivalsbot/internal/discord"
	"github.com/cexll/rivalsbot/internal/logging"
	"github.com/cexll/rivalsbot/internal/reconcile"
	"github.com/cexll/rivalsbot/internal/session"
	"github.com/cexll/rivalsbot/internal/store"
	"github.com/cexll/rivalsbot/internal/web"
)

const (
	serviceName     = "rivals-bot"
	shutdownTimeout = 10 * time.Second
)

// serveFunc serves handler on addr until ctx is done.
type serveFunc func(ctx context.Context, addr string, handler http.Handler) error

// botSession is the part of *discordgo.Session the process uses.
type botSession interface {
	discord.CommandAPI
	bot.Responder
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
}

var (
	loadDotEnv    = godotenv.Load
	openStore     = store.Open
	newWebHandler = web.NewHandler
	newBotSession = func(cfg discord.SessionConfig) (botSession, error) {
		return discord.NewSession(cfg)
	}
	newLogger          = logging.New
	defaultListenServe = listenAndServe
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultListenServe).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(serve serveFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "rivalsbot",
		Short: "Discord roster bot for Marvel Rivals teams",
		Long: `rivalsbot keeps the bot's slash commands registered with Discord,
records which characters members play and answers counter lookups.

Running without a sub-command is the same as "rivalsbot serve".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), serve)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Sync commands, connect to the gateway and serve the status page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), serve)
		},
	})
	root.AddCommand(newSyncCmd())
	root.AddCommand(newCatalogCmd())
	return root
}

func newSyncCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile registered slash commands with the catalog and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without changing anything")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the declared command catalog as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(command.Builtin().Definitions())
		},
	}
}

func newReconciler(cfg *config.Config, api discord.CommandAPI, logger *log.Logger) *reconcile.Reconciler {
	dir := discord.NewDirectory(api, discord.DirectoryConfig{
		AppID:          cfg.DiscordAppID,
		GuildID:        cfg.DiscordGuildID,
		MaxRetries:     cfg.MaxRetries,
		RequestTimeout: cfg.RequestTimeout,
	}, logger.WithPrefix("discord"))
	return reconcile.New(dir, reconcile.Config{Workers: cfg.SyncWorkers}, logger.WithPrefix("reconcile"))
}

func runSync(ctx context.Context, out io.Writer, dryRun bool) error {
	_ = loadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg.LogLevel, serviceName)

	sess, err := newBotSession(discord.SessionConfig{Token: cfg.DiscordToken, RequestTimeout: cfg.RequestTimeout})
	if err != nil {
		return err
	}
	defer sess.Close()

	rec := newReconciler(cfg, sess, logger)
	catalog := command.Builtin().Definitions()

	if dryRun {
		steps, err := rec.Preview(ctx, catalog)
		if err != nil {
			return err
		}
		for _, step := range steps {
			fmt.Fprintf(out, "%-10s %s\n", step.Action, step.Local.Name)
		}
		return nil
	}

	report, err := rec.Reconcile(ctx, catalog)
	if err != nil {
		return err
	}
	for _, o := range report.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(out, "%-10s %s: %v\n", o.Action, o.Name, o.Err)
			continue
		}
		fmt.Fprintf(out, "%-10s %s\n", o.Action, o.Name)
	}
	fmt.Fprintln(out, report.Summary())
	if failed := len(report.Failed()); failed > 0 {
		return fmt.Errorf("%d command(s) failed to sync", failed)
	}
	return nil
}

func run(ctx context.Context, serve serveFunc) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg.LogLevel, serviceName)

	logger.Info("starting", "port", cfg.Port, "scope", cfg.Scope(), "database", cfg.DatabasePath)

	st, err := openStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	table, err := counters.NewSource(cfg.CountersFile, logger.WithPrefix("counters"))
	if err != nil {
		return fmt.Errorf("failed to load counters: %w", err)
	}
	go func() {
		if err := table.Watch(ctx); err != nil {
			logger.Warn("counters watcher stopped", "error", err)
		}
	}()

	sess, err := newBotSession(discord.SessionConfig{Token: cfg.DiscordToken, RequestTimeout: cfg.RequestTimeout})
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	defer sess.Close()

	// Commands are synced before the gateway opens so handlers only go live
	// against the declared catalog.
	status := &web.Status{}
	catalog := command.Builtin()
	report, err := newReconciler(cfg, sess, logger).Reconcile(ctx, catalog.Definitions())
	status.Record(report, err)
	var fetchErr *reconcile.FetchError
	switch {
	case errors.As(err, &fetchErr):
		logger.Error("command sync aborted", "scope", fetchErr.Scope, "error", fetchErr.Err)
	case err != nil:
		logger.Error("command sync failed", "error", err)
	default:
		logger.Info("command sync finished", "scope", report.Scope, "summary", report.Summary(), "took", report.Duration())
	}

	handler := bot.New(bot.Deps{
		Responder:      sess,
		Roster:         st,
		Counters:       table,
		Sessions:       session.NewRegistry(),
		Catalog:        catalog,
		Authorized:     append([]string{cfg.DiscordAppID}, cfg.AuthorizedUserIDs...),
		Logger:         logger.WithPrefix("bot"),
		SessionTimeout: cfg.SessionTimeout,
		ModalTimeout:   cfg.ModalTimeout,
	})
	sess.AddHandler(handler.OnInteraction)
	if err := sess.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}

	webHandler, err := newWebHandler(serviceName, status)
	if err != nil {
		return fmt.Errorf("failed to initialize web handler: %w", err)
	}
	r := mux.NewRouter()
	webHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("status server listening", "addr", addr)
	if err := serve(ctx, addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveListener(ctx, ln, handler)
}

// serveListener serves until ctx is done, then drains in-flight requests.
func serveListener(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
