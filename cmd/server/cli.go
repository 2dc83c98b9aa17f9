package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kuitang/login-suite/internal/auth"
	"github.com/kuitang/login-suite/internal/config"
	"github.com/kuitang/login-suite/internal/obs"
	"github.com/kuitang/login-suite/internal/target"
)

const shutdownTimeout = 10 * time.Second

// Execute runs the CLI with args (without the program name).
func Execute(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return root.ExecuteContext(ctx)
}

// PrintError writes err to stderr.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
}

type rootFlags struct {
	envFile string
	addr    string
	dbPath  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "login-target",
		Short: "login-target serves the login application the browser suite runs against",
		Long: `login-target serves a login form, a session-protected inventory page and
logout, backed by a SQLite account store seeded with the suite's accounts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "load variables from this file when present")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "database path (overrides DATABASE_PATH; empty = in-memory)")
	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides LISTEN_ADDR)")

	cmd.AddCommand(newLockCmd(flags, true))
	cmd.AddCommand(newLockCmd(flags, false))

	return cmd
}

func newLockCmd(flags *rootFlags, locked bool) *cobra.Command {
	use, short := "lock <username>", "lock an account so logins are refused"
	if !locked {
		use, short = "unlock <username>", "unlock an account"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.DatabasePath == "" {
				return errors.New("lock and unlock need a database file (--db or DATABASE_PATH)")
			}
			tg, err := target.New(cmd.Context(), cfg, target.Options{Accounts: []auth.SeedAccount{}, NoRateLimit: true})
			if err != nil {
				return err
			}
			defer tg.Close()

			if err := tg.Users.SetLocked(cmd.Context(), args[0], locked); err != nil {
				return err
			}
			state := "unlocked"
			if locked {
				state = "locked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], state)
			return nil
		},
	}
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return nil, err
	}
	return config.Load(config.Overrides{ListenAddr: flags.addr, DatabasePath: flags.dbPath})
}

func serve(ctx context.Context, cfg *config.Config) error {
	obs.Init(cfg.LogLevel)
	logger := obs.Pkg("server")

	tg, err := target.New(ctx, cfg, target.Options{})
	if err != nil {
		return err
	}
	defer tg.Close()

	go tg.RunSessionCleanup(ctx, time.Minute)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           tg.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	cfg.PrintStartupSummary(os.Stderr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "base_url", cfg.BaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
