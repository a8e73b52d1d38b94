package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tbessias/modkit/internal/bootstrap"
	"github.com/tbessias/modkit/internal/loader"
	"github.com/tbessias/modkit/internal/modcache"
	"github.com/tbessias/modkit/internal/progress"
	"github.com/tbessias/modkit/internal/server"
)

var runPort int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bootstrap the module system and start the API server",
	Long: `Fetches and executes the remote module groups, injects the stored
plugins and themes, and serves the HTTP/WebSocket API for the
management popup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runPort != 0 {
			cfg.Server.Port = runPort
		}

		rt, err := buildRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.database.Close()

		cache := modcache.New(rt.accessor, cfg.DisableCache, cfg.DebugMode)
		ldr := loader.New(rt.locator, rt.fetcher, cache, rt.runner, progress.NewReporter())
		boot := bootstrap.New(cfg, rt.locator, rt.fetcher, rt.runner, ldr, rt.registry, rt.engine)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := boot.Run(ctx); err != nil {
			if errors.Is(err, bootstrap.ErrStartupTimeout) {
				return fmt.Errorf("startup exceeded %s: %w", cfg.BootTimeout(), err)
			}
			return fmt.Errorf("bootstrap: %w", err)
		}

		srv := server.New(rt.locator, cfgFile, rt.store, rt.front, rt.engine, rt.doc, rt.bus)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "modkit v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Source: %s\n", cfg.RemoteBaseURL)
		if cfg.DebugMode {
			fmt.Fprintf(os.Stderr, "  Debug mode: local sources from %s\n", cfg.LocalPaths.Modules)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "  Data dir: %s\n", cfg.DataDir)
			fmt.Fprintf(os.Stderr, "  Module cache: disabled=%v\n", cfg.DisableCache)
			fmt.Fprintf(os.Stderr, "  Fetch timeout: %s, boot ceiling: %s\n", cfg.FetchTimeout(), cfg.BootTimeout())
		}

		return srv.Start()
	},
}

func init() {
	runCmd.Flags().IntVar(&runPort, "port", 0, "Override the configured port")
	rootCmd.AddCommand(runCmd)
}
