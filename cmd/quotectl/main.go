// Package main is quotectl, a command line client that works directly on the
// quotebook storage. It shares configuration and storage with the service, so
// a running service picks up its writes when storage watching is enabled.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotebook/internal/adapters/render"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// cliSession identifies the command line caller in the session store.
const cliSession = "quotectl"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli holds the flags and the opened store shared by every subcommand.
type cli struct {
	out    io.Writer
	errOut io.Writer

	configDir string
	profile   string
	driver    string
	dataDir   string
	verbose   bool

	cfg    *config.Config
	logger *slog.Logger
	handle *storage.Handle
	board  *app.StatusBoard
	store  *app.QuoteStore
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	root := &cobra.Command{
		Use:          "quotectl",
		Short:        "Manage the quotebook collection from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
	}

	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configDir, "config-dir", ".", "directory holding configs/ and .env")
	flags.StringVar(&c.profile, "profile", profile, "configuration profile")
	flags.StringVar(&c.driver, "driver", "", "storage driver override (file, sqlite, memory)")
	flags.StringVar(&c.dataDir, "data-dir", "", "storage directory override")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		c.randomCmd(),
		c.addCmd(),
		c.importCmd(),
		c.exportCmd(),
		c.categoriesCmd(),
		c.selectCmd(),
		c.syncCmd(),
	)

	return root
}

// open loads configuration and the collection.
func (c *cli) open(ctx context.Context) error {
	cfg, err := config.LoadFrom(c.configDir, c.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if c.driver != "" {
		cfg.Storage.Driver = c.driver
	}

	if c.dataDir != "" {
		cfg.Storage.Dir = c.dataDir
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level := "warn"
	if c.verbose {
		level = "debug"
	}

	c.cfg = cfg
	c.logger = logging.NewWithWriter(&logging.Config{
		Level:   level,
		Format:  "pretty",
		Service: "quotectl",
		Version: cfg.App.Version,
	}, c.errOut)

	handle, err := storage.Open(ctx, storage.Options{
		Driver:     cfg.Storage.Driver,
		Dir:        cfg.Storage.Dir,
		SQLitePath: cfg.Storage.SQLitePath,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	c.handle = handle
	c.board = app.NewStatusBoard(app.StatusBoardConfig{TTL: cfg.Status.TTL, Capacity: cfg.Status.Capacity})
	c.store = app.NewQuoteStore(app.QuoteStoreConfig{
		Storage:  handle.Store,
		Sessions: memory.NewSessionStore(cfg.Session.TTL, time.Now),
		Notifier: c.board,
		Logger:   c.logger,
	})

	if err := c.store.Load(ctx); err != nil {
		c.logger.WarnContext(ctx, "default quotes not persisted", slog.Any("error", err))
	}

	return nil
}

// close prints the status messages posted during the command and releases storage.
func (c *cli) close() error {
	if c.board != nil {
		for _, msg := range c.board.Recent() {
			_ = render.StatusLine(c.errOut, msg)
		}
	}

	if c.handle == nil {
		return nil
	}

	return c.handle.Close()
}

// run wraps a subcommand so storage is released and status messages are shown
// whether or not it succeeds.
func (c *cli) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)

		if closeErr := c.close(); err == nil {
			err = closeErr
		}

		return err
	}
}
