package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"craftcal/internal/capture"
	"craftcal/internal/config"
	appLog "craftcal/internal/log"
	"craftcal/internal/web"
)

const appVersion = "0.3.0"

// cliFlags holds values shared by every subcommand.
type cliFlags struct {
	configPath string
	listen     string
}

func main() {
	var flags cliFlags

	root := &cobra.Command{
		Use:           "craftcal",
		Short:         "Craft fair events calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	root.Version = appVersion
	root.SetVersionTemplate("craftcal v{{.Version}}\n")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "./config.yaml", "Path to config file")
	root.PersistentFlags().StringVar(&flags.listen, "listen", "", "HTTP listen address (overrides config if set)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	})

	var snapURL string
	snapshot := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture one calendar preview PNG from a running server and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), flags, snapURL)
		},
	}
	snapshot.Flags().StringVar(&snapURL, "url", "", "Calendar URL to capture (default: derived from listen address)")
	root.AddCommand(snapshot)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		appLog.Error("craftcal failed", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies CLI overrides.
func loadConfig(flags cliFlags) (*config.Loader, *config.Config, error) {
	loader, err := config.NewLoader(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	conf := withOverrides(loader.Config(), flags)
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	return loader, conf, nil
}

func withOverrides(c *config.Config, flags cliFlags) *config.Config {
	if flags.listen == "" {
		return c
	}
	cp := *c
	cp.Listen = flags.listen
	return &cp
}

func runServe(ctx context.Context, flags cliFlags) error {
	appLog.Info("craftcal starting", "version", appVersion)

	loader, conf, err := loadConfig(flags)
	if err != nil {
		return err
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"endpoint_set", conf.Endpoint != "",
		"timezone", conf.Timezone,
		"request_timeout_seconds", conf.RequestTimeoutSeconds,
		"log_level", conf.LogLevel,
		"snapshot_cron", conf.Snapshot.Cron,
	)

	srv, err := web.NewServer(conf, web.Options{})
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}

	// Listen address and CSRF key need a restart; everything else is read
	// per request.
	loader.OnChange(func(next *config.Config) {
		next = withOverrides(next, flags)
		appLog.SetLevel(appLog.ParseLevel(next.LogLevel))
		srv.SetConfig(next)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		appLog.Error("config watcher unavailable (hot-reload disabled)", err)
	} else {
		defer stopWatch()
	}

	httpSrv := &http.Server{
		Addr:              conf.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var sched *capture.Scheduler
	if conf.Snapshot.Cron != "" {
		sched, err = capture.NewScheduler(conf.Snapshot.Cron, snapshotOptions(conf, ""), nil)
		if err != nil {
			return err
		}
		sched.Start()
		appLog.Info("preview capture scheduled", "cron", conf.Snapshot.Cron, "output", conf.Snapshot.Output)
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("http server listening", "addr", conf.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop(shutCtx)
	}
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		appLog.Error("http shutdown failed", err)
	}
	appLog.Info("craftcal exiting")
	return nil
}

func runSnapshot(ctx context.Context, flags cliFlags, url string) error {
	_, conf, err := loadConfig(flags)
	if err != nil {
		return err
	}
	opts := snapshotOptions(conf, url)
	appLog.Info("capturing calendar preview", "url", opts.URL, "output", opts.OutputPath)
	if err := capture.CalendarPNG(ctx, opts); err != nil {
		return err
	}
	appLog.Info("preview written", "output", opts.OutputPath)
	return nil
}

// snapshotOptions builds capture options. An empty url points at this
// server's own /calendar page, sized to the snapshot viewport.
func snapshotOptions(conf *config.Config, url string) capture.Options {
	if url == "" {
		url = localURL(conf.Listen) + "/calendar?w=" + strconv.Itoa(conf.Snapshot.Width)
	}
	return capture.Options{
		URL:        url,
		OutputPath: conf.Snapshot.Output,
		Width:      conf.Snapshot.Width,
		Height:     conf.Snapshot.Height,
	}
}

// localURL turns a listen address into a loopback base URL.
func localURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://127.0.0.1:8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
